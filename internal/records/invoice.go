package records

import (
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/shopspring/decimal"
)

// renderHeader lays out an invoice header (kind '1' sales, '2' purchases).
func renderHeader(ctx Context, h *InvoiceHeader) ([]byte, bool) {
	b := newBuffer(ctx, h.Date, byte(h.Book))
	b.put(16, 27, codec.Account12(h.Account, ctx.Ndig))
	b.put(28, 57, h.Name)
	b.char(58, HeaderInvoiceTy)
	b.put(59, 68, h.Reference)
	b.char(69, byte(Initial))
	b.put(70, 99, h.Description)
	b.put(100, 113, codec.SignedAmount14(h.Total))
	b.put(176, 189, h.TaxID)
	b.put(190, 229, h.Name)
	b.put(230, 234, h.PostalCode)
	b.put(237, 244, h.OperationDate)
	b.put(245, 252, h.IssueDate)
	longSII := h.LongSII
	if strings.TrimSpace(longSII) == "" {
		longSII = h.Reference
	}
	b.put(253, 312, longSII)
	return b.b, b.substituted
}

// renderDetail lays out one VAT detail (kind '9'). The marker is 'U' on the
// last detail of an invoice and 'M' on the others.
func renderDetail(ctx Context, d *InvoiceDetail) ([]byte, bool) {
	b := newBuffer(ctx, d.Date, KindCharDetail)
	b.put(16, 27, codec.Account12(d.Account, ctx.Ndig))
	if d.Book == Purchases {
		b.char(58, 'A')
	} else {
		b.char(58, 'C')
	}
	b.put(59, 68, d.Reference)
	if d.Last {
		b.char(69, byte(Unique))
	} else {
		b.char(69, byte(Middle))
	}
	b.put(70, 99, d.Description)

	subtype := d.Subtype
	if subtype == "" {
		subtype = DetailSubtype
	}
	b.put(100, 101, subtype)
	b.put(102, 115, codec.SignedAmount14(d.Base))
	b.put(116, 120, codec.Pct5(d.PctVAT))
	b.put(121, 134, codec.SignedAmount14(d.CuotaVAT))
	b.put(135, 139, codec.Pct5(d.PctRE))
	b.put(140, 153, codec.SignedAmount14(d.CuotaRE))
	b.put(154, 158, codec.Pct5(d.PctIRPF))
	b.put(159, 172, codec.SignedAmount14(d.CuotaIRPF))
	b.put(173, 174, DetailTaxForm)
	b.char(175, 'S')
	b.account(176, d.VATAccount, ctx.Ndig)
	if !d.CuotaRE.IsZero() {
		b.account(188, d.REAccount, ctx.Ndig)
	}
	if !d.CuotaIRPF.IsZero() {
		b.account(200, d.IRPFAccount, ctx.Ndig)
	}
	return b.b, b.substituted
}

// Total returns Σ base + Σ VAT + Σ RE − Σ IRPF over details.
func Total(details []InvoiceDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Base).Add(d.CuotaVAT).Add(d.CuotaRE).Sub(d.CuotaIRPF.Abs())
	}
	return codec.Round2(total)
}
