package xlsxparser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/xuri/excelize/v2"
)

// maxExcelSerial is 9999-12-31 as an Excel serial date.
const maxExcelSerial = 2958465

// Column is one mapped column.
type Column struct {
	Key   types.Key
	Index int // 0-based
}

// Condition is a compiled "COL=value" rule.
type Condition struct {
	Index int
	Value string
}

// Match reports whether the cell under the condition's column equals Value
// once both sides are trimmed.
func (c *Condition) Match(cells []string) bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(cell(cells, c.Index)) == c.Value
}

// Plan is a mapping compiled against column indices. It is shared by every
// row source so spreadsheets and CSV files produce identical rows.
type Plan struct {
	FirstRow int // 1-based
	Columns  []Column
	Ignore   *Condition
	Generic  *Condition
}

// ColumnIndex converts a column letter (A, B, ..., AA, ...) to a 0-based index.
func ColumnIndex(letters string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(letters))
	if s == "" {
		return 0, fmt.Errorf("empty column letter")
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("malformed column letter %q", letters)
		}
	}
	n, err := excelize.ColumnNameToNumber(s)
	if err != nil {
		return 0, fmt.Errorf("malformed column letter %q: %w", letters, err)
	}
	return n - 1, nil
}

// ParseCondition compiles "COL=value". An empty string yields nil.
func ParseCondition(raw string) (*Condition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	col, value, ok := strings.Cut(raw, "=")
	if !ok {
		return nil, fmt.Errorf("condition %q is not COL=value", raw)
	}
	idx, err := ColumnIndex(col)
	if err != nil {
		return nil, err
	}
	return &Condition{Index: idx, Value: strings.TrimSpace(value)}, nil
}

// Compile validates a mapping and resolves its column letters. Malformed
// letters or conditions are reported as ErrMappingMissing.
func Compile(m models.Mapping) (*Plan, error) {
	p := &Plan{FirstRow: m.FirstRow}
	if p.FirstRow < 1 {
		p.FirstRow = 1
	}

	names := make([]string, 0, len(m.Columns))
	for name := range m.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		idx, err := ColumnIndex(m.Columns[name])
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		p.Columns = append(p.Columns, Column{Key: types.Key(name), Index: idx})
	}

	var err error
	if p.Ignore, err = ParseCondition(m.IgnoreCond); err != nil {
		problems = append(problems, "ignore_cond: "+err.Error())
	}
	if p.Generic, err = ParseCondition(m.GenericAccountCond); err != nil {
		problems = append(problems, "generic_account_cond: "+err.Error())
	}

	if len(problems) > 0 {
		return nil, types.NewError("compile mapping", types.ErrMappingMissing, strings.Join(problems, "; "))
	}
	return p, nil
}

// Apply turns raw cells into rows. lines holds the 1-based source line of
// each cell slice; rows before FirstRow and rows matching the ignore
// condition are skipped. Unmapped cells beyond a short row come back empty
// but their keys remain present.
func (p *Plan) Apply(lines []int, cells [][]string) []types.Row {
	var out []types.Row
	for i, c := range cells {
		line := lines[i]
		if line < p.FirstRow || p.Ignore.Match(c) {
			continue
		}
		row := types.Row{
			Number:            len(out) + 1,
			SourceLine:        line,
			Values:            make(map[types.Key]string, len(p.Columns)),
			Annotations:       map[string]string{},
			UseGenericAccount: p.Generic.Match(c),
		}
		for _, col := range p.Columns {
			v := strings.TrimSpace(cell(c, col.Index))
			if types.IsDateKey(col.Key) {
				v = serialDate(v)
			}
			row.Set(col.Key, v)
		}
		out = append(out, row)
	}
	return out
}

// serialDate converts an Excel serial date to YYYY-MM-DD and leaves any
// other value alone. Compact YYYYMMDD values exceed the serial range.
func serialDate(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 1 || f > maxExcelSerial {
		return v
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
