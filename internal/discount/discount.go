// Package discount applies line recalculation, proportional global discounts
// and invoice-level IRPF withholding to invoice document lines. All money
// math is decimal and rounded to two places half away from zero.
package discount

import (
	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are the money figures of a prepared invoice. IRPF is the withheld
// magnitude (non-negative).
type Totals struct {
	Base  decimal.Decimal
	VAT   decimal.Decimal
	RE    decimal.Decimal
	IRPF  decimal.Decimal
	Total decimal.Decimal
}

// RecalcLine recomputes base and quotas from units, unit price and the line
// discount. Lines without units and price keep their entered base.
// Observation lines come back with every amount zeroed.
func RecalcLine(l models.Line) models.Line {
	if l.IsObservation() {
		return models.Line{Concept: l.Concept, Kind: models.LineObservation}
	}

	if !l.Units.IsZero() || !l.UnitPrice.IsZero() {
		l.UnitPrice = codec.Round4(l.UnitPrice)
		base := codec.Round2(l.Units.Mul(l.UnitPrice))
		switch l.DiscountType {
		case models.DiscountPct:
			pct := clampPct(l.DiscountValue)
			base = base.Sub(codec.Round2(base.Mul(pct).Div(hundred)))
		case models.DiscountAmount:
			base = base.Sub(capped(l.DiscountValue, base))
		}
		l.Base = codec.Round2(base)
	}

	l.Base = codec.Round2(l.Base)
	l.PctVAT = codec.Round2(l.PctVAT)
	l.PctRE = codec.Round2(l.PctRE)
	l.PctIRPF = codec.Round2(l.PctIRPF)
	l.CuotaVAT = quota(l.Base, l.PctVAT)
	l.CuotaRE = quota(l.Base, l.PctRE)
	l.CuotaIRPF = quota(l.Base, l.PctIRPF)
	return l
}

// ApplyGlobalDiscount distributes a global discount over the normal lines in
// proportion to their bases and returns the new lines with the discounted
// total. The input slice is not modified.
func ApplyGlobalDiscount(lines []models.Line, typ models.DiscountType, value decimal.Decimal) ([]models.Line, decimal.Decimal) {
	out := make([]models.Line, len(lines))
	copy(out, lines)

	sum := SumBase(lines)
	if sum.IsZero() {
		return out, decimal.Zero
	}

	var descTotal decimal.Decimal
	switch typ {
	case models.DiscountPct:
		descTotal = clampPct(value).Mul(sum).Div(hundred)
	case models.DiscountAmount:
		descTotal = capped(value, sum)
	default:
		return out, decimal.Zero
	}

	for i, l := range out {
		if l.IsObservation() || l.Base.IsZero() {
			continue
		}
		ratio := descTotal.Mul(l.Base).Div(sum)
		factor := decimal.NewFromInt(1).Sub(ratio.Div(l.Base))
		out[i].Base = codec.Round2(l.Base.Mul(factor))
		out[i].CuotaVAT = codec.Round2(l.CuotaVAT.Mul(factor))
		out[i].CuotaRE = codec.Round2(l.CuotaRE.Mul(factor))
		out[i].CuotaIRPF = codec.Round2(l.CuotaIRPF.Mul(factor))
	}
	return out, codec.Round2(descTotal)
}

// ApplyWithholding computes the invoice-level withholding. Automatic mode
// takes the sum of line bases and spreads the percentage over the lines;
// manual mode honors the entered base and zeroes line-level IRPF. The amount
// is always non-positive.
func ApplyWithholding(lines []models.Line, w models.Withholding) ([]models.Line, models.Withholding) {
	out := make([]models.Line, len(lines))
	copy(out, lines)
	if !w.Applies {
		w.Amount = decimal.Zero
		return out, w
	}

	w.Pct = codec.Round2(w.Pct)
	if w.Manual {
		for i := range out {
			out[i].PctIRPF = decimal.Zero
			out[i].CuotaIRPF = decimal.Zero
		}
		w.Base = codec.Round2(w.Base)
	} else {
		w.Base = SumBase(out)
		for i, l := range out {
			if l.IsObservation() {
				continue
			}
			out[i].PctIRPF = w.Pct
			out[i].CuotaIRPF = quota(l.Base, w.Pct)
		}
	}
	w.Amount = codec.Round2(w.Base.Mul(w.Pct).Div(hundred)).Abs().Neg()
	return out, w
}

// Prepare runs line recalculation, the global discount and the withholding
// on a copy of the document lines.
func Prepare(doc *models.InvoiceDocument) ([]models.Line, models.Withholding, Totals) {
	lines := make([]models.Line, len(doc.Lines))
	for i, l := range doc.Lines {
		lines[i] = RecalcLine(l)
	}
	lines, _ = ApplyGlobalDiscount(lines, doc.DiscountType, doc.DiscountValue)
	lines, w := ApplyWithholding(lines, doc.Withholding)
	return lines, w, Compute(lines, w)
}

// Compute sums the lines. When a withholding applies its amount replaces
// the line-level IRPF quotas.
func Compute(lines []models.Line, w models.Withholding) Totals {
	var t Totals
	for _, l := range lines {
		if l.IsObservation() {
			continue
		}
		t.Base = t.Base.Add(l.Base)
		t.VAT = t.VAT.Add(l.CuotaVAT)
		t.RE = t.RE.Add(l.CuotaRE)
		t.IRPF = t.IRPF.Add(l.CuotaIRPF.Abs())
	}
	if w.Applies {
		t.IRPF = w.Amount.Abs()
	}
	t.Base = codec.Round2(t.Base)
	t.VAT = codec.Round2(t.VAT)
	t.RE = codec.Round2(t.RE)
	t.IRPF = codec.Round2(t.IRPF)
	t.Total = t.Base.Add(t.VAT).Add(t.RE).Sub(t.IRPF)
	return t
}

// SumBase adds the bases of the normal lines.
func SumBase(lines []models.Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if !l.IsObservation() {
			sum = sum.Add(l.Base)
		}
	}
	return sum
}

func quota(base, pct decimal.Decimal) decimal.Decimal {
	return codec.Round2(base.Mul(pct).Div(hundred))
}

func clampPct(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// capped returns min(|v|, |limit|) carrying the sign of limit.
func capped(v, limit decimal.Decimal) decimal.Decimal {
	m := decimal.Min(v.Abs(), limit.Abs())
	if limit.IsNegative() {
		return m.Neg()
	}
	return m
}
