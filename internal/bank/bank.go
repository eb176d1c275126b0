// Package bank turns bank statement rows into balanced two-line entries
// rendered as type 0 records.
package bank

import (
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/grouper"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/records"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/gobwas/glob"
	"github.com/shopspring/decimal"
)

// PostingLine is one side of a movement before rendering.
type PostingLine struct {
	Row         int
	Date        string // YYYYMMDD
	Subaccount  string
	Side        records.Side
	Amount      decimal.Decimal // non-negative
	Description string
}

// Batch is the output of Generate.
type Batch struct {
	Lines      []PostingLine
	Records    []records.Record
	Entries    int
	Advisories types.Advisories
}

type conceptMatcher struct {
	pattern    string
	glob       glob.Glob
	subaccount string
}

// Generate maps rows to posting lines and records. Rows with a zero amount
// are skipped silently; rows with an invalid date or amount are skipped with
// an advisory. A template without bank or default subaccount fails with
// ErrTemplateIncomplete.
func Generate(rows []types.Row, tpl *models.Template, companyCode string, ndig int) (*Batch, error) {
	if err := validation.CheckTemplate(models.KindBank, tpl); err != nil {
		return nil, err
	}

	log := logger.WithComponent("bank")
	batch := &Batch{}
	matchers := compileConcepts(tpl.Concepts, &batch.Advisories)

	for _, row := range rows {
		rawAmount := row.Get(types.KeyImporte)
		amount, err := codec.ParseAmount(rawAmount)
		if err != nil {
			batch.Advisories.Add(row.Number, types.ErrInvalidAmount, "Row %d: invalid amount %s. Movement skipped.", row.Number, rawAmount)
			continue
		}
		amount = codec.Round2(amount)
		if amount.IsZero() {
			continue
		}

		rawDate := row.First(types.DateKeys...)
		date, ok := codec.Date8(rawDate)
		if !ok {
			batch.Advisories.Add(row.Number, types.ErrInvalidDate, "Row %d: invalid date %s. Movement skipped.", row.Number, rawDate)
			continue
		}

		concept := row.First(types.KeyConcepto, types.KeyDescripcion)
		counterpart := counterpartFor(concept, matchers, tpl.SubaccountDefault)

		bankLine := PostingLine{Row: row.Number, Date: date, Subaccount: tpl.SubaccountBank, Amount: amount.Abs(), Description: concept}
		otherLine := PostingLine{Row: row.Number, Date: date, Subaccount: counterpart, Amount: amount.Abs(), Description: concept}
		if amount.IsPositive() {
			bankLine.Side, otherLine.Side = records.Debit, records.Credit
			batch.Lines = append(batch.Lines, bankLine, otherLine)
		} else {
			otherLine.Side, bankLine.Side = records.Debit, records.Credit
			batch.Lines = append(batch.Lines, otherLine, bankLine)
		}
	}

	batch.Records = ToRecords(batch.Lines)
	batch.Entries = grouper.MarkBankEntries(batch.Records)

	log.Debug().
		Int("rows", len(rows)).
		Int("lines", len(batch.Lines)).
		Int("entries", batch.Entries).
		Int("advisories", len(batch.Advisories)).
		Str("company", companyCode).
		Int("ndig", ndig).
		Msg("bank batch generated")
	return batch, nil
}

// ToRecords wraps posting lines as bank records. Markers are assigned by
// grouper.MarkBankEntries.
func ToRecords(lines []PostingLine) []records.Record {
	out := make([]records.Record, len(lines))
	for i, l := range lines {
		out[i] = records.Bank(l.Row, records.BankLine{
			Date:        l.Date,
			Account:     l.Subaccount,
			Side:        l.Side,
			Amount:      l.Amount,
			Description: l.Description,
		})
	}
	return out
}

func compileConcepts(rules []models.ConceptRule, advisories *types.Advisories) []conceptMatcher {
	matchers := make([]conceptMatcher, 0, len(rules))
	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			advisories.Add(0, types.ErrTemplateIncomplete, "Concept pattern %q is not a valid glob and was ignored.", r.Pattern)
			continue
		}
		matchers = append(matchers, conceptMatcher{pattern: p, glob: g, subaccount: r.Subaccount})
	}
	return matchers
}

func counterpartFor(concept string, matchers []conceptMatcher, def string) string {
	text := strings.ToLower(strings.TrimSpace(concept))
	for _, m := range matchers {
		if m.glob.Match(text) {
			return m.subaccount
		}
	}
	return def
}
