package invoice

import (
	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/discount"
	"github.com/ginjaninja78/suenlace/internal/grouper"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/shopspring/decimal"
)

// FromDocuments renders saved invoice documents.
func (g *Generator) FromDocuments(docs []*models.InvoiceDocument) *Batch {
	var adv types.Advisories
	invoices := make([]Invoice, 0, len(docs))
	for i, doc := range docs {
		inv, ok := FromDocument(i+1, doc, &adv)
		if ok {
			invoices = append(invoices, inv)
		}
	}
	return g.Generate(invoices, adv)
}

// FromDocument prepares a document (line recalculation, global discount,
// withholding) and folds its normal lines into one line per VAT and RE
// rate. Observation lines are omitted. When a withholding applies, any gap
// between its amount and the folded line quotas lands on the line with the
// largest base.
func FromDocument(row int, doc *models.InvoiceDocument, adv *types.Advisories) (Invoice, bool) {
	date, ok := codec.Date8(doc.AccountingDate)
	if !ok {
		adv.Add(row, types.ErrInvalidDate, "Row %d: invalid date %s. Invoice %s%s skipped.", row, doc.AccountingDate, doc.Serie, doc.Number)
		return Invoice{}, false
	}

	inv := Invoice{
		Identity:        doc.Identity(),
		Row:             row,
		Serie:           doc.Serie,
		Number:          doc.Number,
		LongSII:         doc.LongSIINumber,
		Date:            date,
		TaxID:           validation.NormalizeTaxID(doc.TaxID),
		Name:            doc.Name,
		PostalCode:      doc.PostalCode,
		AccountOverride: doc.ClientSubaccount,
	}
	inv.IssueDate = dateOr(doc.IssueDate, inv.Date)
	inv.OperationDate = dateOr(doc.OperationDate, inv.IssueDate)

	lines, w, _ := discount.Prepare(doc)

	var normal []models.Line
	for _, l := range lines {
		if !l.IsObservation() {
			normal = append(normal, l)
		}
	}
	if len(normal) > 0 && inv.Description == "" {
		inv.Description = normal[0].Concept
	}

	rates := grouper.ByKey(normal, func(l models.Line) string {
		return l.PctVAT.StringFixed(2) + "|" + l.PctRE.StringFixed(2)
	})
	for _, r := range rates {
		folded := Line{Row: row, PctVAT: r.Items[0].PctVAT, PctRE: r.Items[0].PctRE}
		for _, l := range r.Items {
			folded.Base = folded.Base.Add(l.Base)
			folded.CuotaVAT = folded.CuotaVAT.Add(l.CuotaVAT)
			folded.CuotaRE = folded.CuotaRE.Add(l.CuotaRE)
			folded.CuotaIRPF = folded.CuotaIRPF.Add(l.CuotaIRPF.Abs())
			if folded.PctIRPF.IsZero() {
				folded.PctIRPF = l.PctIRPF
			}
		}
		inv.Lines = append(inv.Lines, folded)
	}

	if w.Applies && len(inv.Lines) > 0 {
		sum := decimal.Zero
		largest := 0
		for i, l := range inv.Lines {
			sum = sum.Add(l.CuotaIRPF)
			if l.Base.Abs().GreaterThan(inv.Lines[largest].Base.Abs()) {
				largest = i
			}
		}
		if gap := w.Amount.Abs().Sub(sum); !gap.IsZero() {
			inv.Lines[largest].CuotaIRPF = inv.Lines[largest].CuotaIRPF.Add(gap)
			if inv.Lines[largest].PctIRPF.IsZero() {
				inv.Lines[largest].PctIRPF = w.Pct
			}
		}
	}
	return inv, true
}

func dateOr(raw, fallback string) string {
	if v, ok := codec.Date8(raw); ok {
		return v
	}
	return fallback
}
