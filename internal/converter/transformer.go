// =============================================================================
// Suenlace Generator - Row Normalizer
// =============================================================================
//
// Extracted cells arrive as the spreadsheet or CSV held them: stray blanks,
// non-breaking spaces, "nan" placeholders left by exports, decomposed accents.
// The normalizer cleans each value by key before the generators see it and
// drops rows left without any semantic value.
//
// ACTIONS:
//   - trim            : remove leading and trailing whitespace
//   - null_to_empty   : turn "nan", "none", "null" into an empty value
//   - nfc             : compose accents (e + U+0301 becomes é)
//   - collapse_spaces : non-breaking spaces and whitespace runs become one space
//   - strip_spaces    : remove every whitespace (accounts, amounts)
//   - uppercase       : tax ids and series
//
// =============================================================================

package converter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/suenlace/internal/types"
)

// Action is one value transformation.
type Action string

const (
	ActionTrim           Action = "trim"
	ActionNullToEmpty    Action = "null_to_empty"
	ActionNFC            Action = "nfc"
	ActionCollapseSpaces Action = "collapse_spaces"
	ActionStripSpaces    Action = "strip_spaces"
	ActionUppercase      Action = "uppercase"
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer applies per-key actions to rows.
type Normalizer struct {
	rules    map[types.Key][]Action
	fallback []Action
}

// NewNormalizer builds a normalizer. Keys without a rule get fallback.
func NewNormalizer(rules map[types.Key][]Action, fallback []Action) *Normalizer {
	return &Normalizer{rules: rules, fallback: fallback}
}

// DefaultNormalizer returns the rules used for every generation batch.
func DefaultNormalizer() *Normalizer {
	text := []Action{ActionNullToEmpty, ActionNFC, ActionCollapseSpaces, ActionTrim}
	compact := []Action{ActionNullToEmpty, ActionStripSpaces}
	upper := []Action{ActionNullToEmpty, ActionStripSpaces, ActionUppercase}

	rules := map[types.Key][]Action{
		types.KeyNIF:          upper,
		types.KeySerie:        upper,
		types.KeyCuenta:       compact,
		types.KeyCodigoPostal: compact,
		types.KeyImporte:      compact,
		types.KeyBase:         compact,
		types.KeyCuotaIVA:     compact,
		types.KeyPctIVA:       compact,
		types.KeyPctRE:        compact,
		types.KeyCuotaRE:      compact,
		types.KeyPctIRPF:      compact,
		types.KeyCuotaIRPF:    compact,
		types.KeyTotal:        compact,
	}
	return NewNormalizer(rules, text)
}

// Value normalizes one value stored under k.
func (n *Normalizer) Value(k types.Key, v string) string {
	actions, ok := n.rules[k]
	if !ok {
		actions = n.fallback
	}
	for _, a := range actions {
		v = ApplyAction(v, a)
	}
	return v
}

// Rows normalizes rows in order and drops blank ones. Row numbers are
// kept so advisories still point at the delivered row.
func (n *Normalizer) Rows(rows []types.Row) (out []types.Row, dropped int) {
	out = make([]types.Row, 0, len(rows))
	for _, row := range rows {
		clean := types.Row{
			Number:            row.Number,
			SourceLine:        row.SourceLine,
			Values:            make(map[types.Key]string, len(row.Values)),
			Annotations:       row.Annotations,
			UseGenericAccount: row.UseGenericAccount,
		}
		for k, v := range row.Values {
			clean.Values[k] = n.Value(k, v)
		}
		if clean.IsBlank() {
			dropped++
			continue
		}
		out = append(out, clean)
	}
	return out, dropped
}

// =============================================================================
// ACTIONS
// =============================================================================

// ApplyAction applies a single action. Unknown actions leave v unchanged.
func ApplyAction(v string, a Action) string {
	switch a {
	case ActionTrim:
		return strings.TrimSpace(v)

	case ActionNullToEmpty:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "nan", "none", "null", "#n/a":
			return ""
		}
		return v

	case ActionNFC:
		return norm.NFC.String(v)

	case ActionCollapseSpaces:
		return strings.Join(strings.FieldsFunc(v, isSpace), " ")

	case ActionStripSpaces:
		return strings.Join(strings.FieldsFunc(v, isSpace), "")

	case ActionUppercase:
		return strings.ToUpper(v)
	}
	return v
}

// isSpace also covers U+00A0 and U+202F, which spreadsheets use as
// thousands separators.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u00a0' || r == '\u202f'
}
