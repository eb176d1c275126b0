package invoice

import (
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/grouper"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromRows groups spreadsheet rows into invoices and renders them.
func (g *Generator) FromRows(rows []types.Row) *Batch {
	invoices, adv := CollectRows(rows)
	return g.Generate(invoices, adv)
}

type parsedRow struct {
	row      types.Row
	identity string
	date     string
	line     Line
}

// CollectRows turns rows into invoices keyed by long SII number, or
// serie|number when absent, in order of first appearance. Rows without a
// number, with an invalid date or with unreadable amounts are dropped with
// an advisory.
func CollectRows(rows []types.Row) ([]Invoice, types.Advisories) {
	var adv types.Advisories
	var parsed []parsedRow

	for _, row := range rows {
		identity := rowIdentity(row)
		if identity == "" {
			adv.Add(row.Number, types.ErrMappingMissing, "Row %d: missing invoice number. Row skipped.", row.Number)
			continue
		}

		rawDate := row.First(types.KeyFechaAsiento, types.KeyFechaExpedicion, types.KeyFechaOperacion, types.KeyFecha)
		date, ok := codec.Date8(rawDate)
		if !ok {
			adv.Add(row.Number, types.ErrInvalidDate, "Row %d: invalid date %s. Row skipped.", row.Number, rawDate)
			continue
		}

		line, err := parseLine(row)
		if err != nil {
			adv.Add(row.Number, types.ErrInvalidAmount, "Row %d: %v. Row skipped.", row.Number, err)
			continue
		}
		parsed = append(parsed, parsedRow{row: row, identity: identity, date: date, line: line})
	}

	groups := grouper.ByKey(parsed, func(p parsedRow) string { return p.identity })
	invoices := make([]Invoice, 0, len(groups))
	for _, grp := range groups {
		first := grp.Items[0]
		inv := Invoice{
			Identity: grp.Key,
			Row:      first.row.Number,
			Serie:    first.row.Get(types.KeySerie),
			Number:   first.row.Get(types.KeyNumero),
			LongSII:  first.row.Get(types.KeyNumeroLargoSII),
			Date:     first.date,
		}
		inv.IssueDate = optionalDate(first.row, inv.Date, types.KeyFechaExpedicion)
		inv.OperationDate = optionalDate(first.row, inv.IssueDate, types.KeyFechaOperacion)

		for _, p := range grp.Items {
			r := p.row
			if p.date != inv.Date {
				adv.Add(r.Number, types.ErrInvalidDate, "Row %d: date %s differs from invoice %s, posted on %s.", r.Number, p.date, inv.Reference(), inv.Date)
			}
			fillOnce(&inv.TaxID, r.Get(types.KeyNIF))
			fillOnce(&inv.Name, r.Get(types.KeyNombre))
			fillOnce(&inv.PostalCode, r.Get(types.KeyCodigoPostal))
			fillOnce(&inv.Description, r.Get(types.KeyDescripcion))
			fillOnce(&inv.AccountOverride, r.Get(types.KeyCuenta))
			if r.UseGenericAccount {
				inv.UseGenericAccount = true
			}
			if inv.ProvidedTotal == nil {
				if raw := r.Get(types.KeyTotal); raw != "" && !strings.EqualFold(raw, "nan") {
					if v, err := codec.ParseAmount(raw); err == nil {
						v = codec.Round2(v)
						inv.ProvidedTotal = &v
					} else {
						adv.Add(r.Number, types.ErrInvalidAmount, "Row %d: invalid total %s ignored.", r.Number, raw)
					}
				}
			}
			inv.Lines = append(inv.Lines, p.line)
		}
		invoices = append(invoices, inv)
	}
	return invoices, adv
}

func rowIdentity(row types.Row) string {
	if sii := row.Get(types.KeyNumeroLargoSII); sii != "" {
		return sii
	}
	number := row.Get(types.KeyNumero)
	if number == "" {
		return ""
	}
	return row.Get(types.KeySerie) + "|" + number
}

func optionalDate(row types.Row, fallback string, key types.Key) string {
	if v, ok := codec.Date8(row.Get(key)); ok {
		return v
	}
	return fallback
}

func fillOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// parseLine reads the money cells of a row. A missing quota is computed from
// base and percentage; a missing percentage is derived from base and quota.
func parseLine(row types.Row) (Line, error) {
	l := Line{Row: row.Number, Description: row.Get(types.KeyDescripcion)}
	var err error
	if l.Base, err = amount(row, types.KeyBase); err != nil {
		return l, err
	}
	if l.PctVAT, l.CuotaVAT, err = pair(row, l.Base, types.KeyPctIVA, types.KeyCuotaIVA); err != nil {
		return l, err
	}
	if l.PctRE, l.CuotaRE, err = pair(row, l.Base, types.KeyPctRE, types.KeyCuotaRE); err != nil {
		return l, err
	}
	if l.PctIRPF, l.CuotaIRPF, err = pair(row, l.Base, types.KeyPctIRPF, types.KeyCuotaIRPF); err != nil {
		return l, err
	}
	l.CuotaIRPF = l.CuotaIRPF.Abs()
	return l, nil
}

func amount(row types.Row, k types.Key) (decimal.Decimal, error) {
	v, err := codec.ParseAmount(row.Get(k))
	if err != nil {
		return v, err
	}
	return codec.Round2(v), nil
}

func pair(row types.Row, base decimal.Decimal, pctKey, cuotaKey types.Key) (decimal.Decimal, decimal.Decimal, error) {
	pct, err := codec.ParsePercent(row.Get(pctKey))
	if err != nil {
		return pct, decimal.Zero, err
	}
	cuota, err := amount(row, cuotaKey)
	if err != nil {
		return pct, cuota, err
	}
	hasCuota := row.Get(cuotaKey) != "" && !strings.EqualFold(row.Get(cuotaKey), "nan")
	switch {
	case !hasCuota && !pct.IsZero():
		cuota = codec.Round2(base.Mul(pct).Div(hundred))
	case hasCuota && pct.IsZero() && !base.IsZero() && !cuota.IsZero():
		pct = codec.Round2(cuota.Mul(hundred).Div(base)).Abs()
	}
	return pct, cuota, nil
}
