package types

import (
	"fmt"
	"strings"
)

// SummaryLimit is how many advisories a summary prints verbatim.
const SummaryLimit = 10

// Advisory is a non-fatal, per-row diagnostic carried alongside the output.
type Advisory struct {
	// Row is the 1-based row number the advisory refers to (0 for batch-level).
	Row int

	// Kind is the taxonomy error the advisory stands for, if any.
	Kind error

	// Message is the text shown to the user.
	Message string
}

func (a Advisory) String() string {
	return a.Message
}

// Advisories collects advisories in emission order.
type Advisories []Advisory

// Add appends a formatted advisory.
func (a *Advisories) Add(row int, kind error, format string, args ...any) {
	*a = append(*a, Advisory{Row: row, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Merge appends other after a.
func (a *Advisories) Merge(other Advisories) {
	*a = append(*a, other...)
}

// Messages returns the plain advisory texts.
func (a Advisories) Messages() []string {
	out := make([]string, len(a))
	for i, adv := range a {
		out[i] = adv.Message
	}
	return out
}

// Summary renders the first limit advisories verbatim, then "… and N more".
func (a Advisories) Summary(limit int) string {
	if len(a) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = SummaryLimit
	}
	var b strings.Builder
	for i, adv := range a {
		if i == limit {
			fmt.Fprintf(&b, "… and %d more\n", len(a)-limit)
			break
		}
		b.WriteString(adv.Message)
		b.WriteByte('\n')
	}
	return b.String()
}
