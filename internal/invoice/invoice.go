// =============================================================================
// Suenlace Generator - Invoice Generator
// =============================================================================
//
// Issued (sales) and received (purchase) invoices become one header record
// followed by one VAT detail per rate line. Input comes either from
// spreadsheet rows, grouped by invoice identity, or from saved invoice
// documents.
//
// Third-party account resolution, first hit wins:
//   1. the template's generic account when the row matched generic_account_cond
//   2. an explicit per-row override (Cuenta Cliente Proveedor)
//   3. the subaccount linked to the third party for this company year
//   4. prefix || digits(tax id), fitted to the chart width
//
// =============================================================================

package invoice

import (
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/records"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/shopspring/decimal"
)

// TotalTolerance is the largest accepted gap between a provided and a computed total.
var TotalTolerance = decimal.RequireFromString("0.005")

// Invoice is the generator's view of one invoice, whatever its source.
type Invoice struct {
	Identity      string
	Row           int
	Serie         string
	Number        string
	LongSII       string
	Date          string // accounting date, YYYYMMDD
	IssueDate     string
	OperationDate string
	TaxID         string
	Name          string
	PostalCode    string
	Description   string

	AccountOverride   string
	UseGenericAccount bool

	Lines []Line

	// ProvidedTotal is the Total column, when the input carried one.
	ProvidedTotal *decimal.Decimal
}

// Line is one VAT-rate line of an invoice.
type Line struct {
	Row         int
	Description string
	Base        decimal.Decimal
	PctVAT      decimal.Decimal
	CuotaVAT    decimal.Decimal
	PctRE       decimal.Decimal
	CuotaRE     decimal.Decimal
	PctIRPF     decimal.Decimal
	CuotaIRPF   decimal.Decimal // withheld magnitude, non-negative
}

// Reference is serie followed by number, as printed on the invoice.
func (inv *Invoice) Reference() string {
	return strings.TrimSpace(inv.Serie) + strings.TrimSpace(inv.Number)
}

// Links indexes third-party links by normalized tax id.
type Links map[string]*models.ThirdPartyCompany

// NewLinks indexes links that carry their third party.
func NewLinks(links []models.ThirdPartyCompany) Links {
	out := make(Links, len(links))
	for i := range links {
		if id := links[i].TaxID(); id != "" {
			out[validation.NormalizeTaxID(id)] = &links[i]
		}
	}
	return out
}

// Lookup finds the link of a tax id.
func (l Links) Lookup(taxID string) *models.ThirdPartyCompany {
	if l == nil || taxID == "" {
		return nil
	}
	return l[validation.NormalizeTaxID(taxID)]
}

// Batch is the output of a generation run.
type Batch struct {
	Invoices   int
	Records    []records.Record
	Advisories types.Advisories

	// Rendered lists the identities of the invoices that produced records.
	Rendered []string
}

// Generator renders invoices for one template.
type Generator struct {
	tpl         *models.Template
	book        records.Book
	role        models.Role
	counterRole models.Role
	companyCode string
	ndig        int
	links       Links
}

// New validates the template and prepares a generator. The template kind
// selects sales or purchases.
func New(tpl *models.Template, companyCode string, ndig int, links Links) (*Generator, error) {
	kind := tpl.Kind
	if !kind.IsInvoice() {
		kind = models.KindIssued
	}
	if err := validation.CheckTemplate(kind, tpl); err != nil {
		return nil, err
	}
	g := &Generator{tpl: tpl, companyCode: companyCode, ndig: ndig, links: links}
	if kind == models.KindReceived {
		g.book, g.role, g.counterRole = records.Purchases, models.RoleSupplier, models.RoleExpense
	} else {
		g.book, g.role, g.counterRole = records.Sales, models.RoleClient, models.RoleIncome
	}
	return g, nil
}

// Generate renders invoices in order. Invoices without lines are skipped
// with an advisory.
func (g *Generator) Generate(invoices []Invoice, advisories types.Advisories) *Batch {
	log := logger.WithComponent("invoice")
	batch := &Batch{Advisories: advisories}

	for i := range invoices {
		inv := &invoices[i]
		if len(inv.Lines) == 0 {
			batch.Advisories.Add(inv.Row, types.ErrNoRows, "Invoice %s has no lines. Skipped.", inv.Reference())
			continue
		}
		recs := g.render(inv, &batch.Advisories)
		batch.Records = append(batch.Records, recs...)
		batch.Rendered = append(batch.Rendered, inv.Identity)
		batch.Invoices++
	}

	log.Debug().
		Int("invoices", batch.Invoices).
		Int("records", len(batch.Records)).
		Int("advisories", len(batch.Advisories)).
		Str("company", g.companyCode).
		Msg("invoice batch generated")
	return batch
}

func (g *Generator) render(inv *Invoice, adv *types.Advisories) []records.Record {
	link := g.links.Lookup(inv.TaxID)
	account := g.thirdPartyAccount(inv, link, adv)
	counterpart := g.tpl.SubaccountDefault
	if link != nil && link.Subaccount(g.counterRole) != "" {
		counterpart = link.Subaccount(g.counterRole)
	}

	name := inv.Name
	postal := inv.PostalCode
	if link != nil && link.ThirdParty != nil {
		if name == "" {
			name = link.ThirdParty.Name
		}
		if postal == "" {
			postal = link.ThirdParty.PostalCode
		}
	}

	ref := inv.Reference()
	desc := inv.Description
	if desc == "" {
		desc = "Factura " + ref
	}

	details := make([]records.InvoiceDetail, len(inv.Lines))
	for i, l := range inv.Lines {
		vatAcc, reAcc := g.vatAccounts(l, adv)
		irpfAcc := g.tpl.IRPFSubaccount
		if irpfAcc == "" && !l.CuotaIRPF.IsZero() {
			adv.Add(l.Row, types.ErrTemplateIncomplete, "Row %d: no IRPF account on template %s.", l.Row, g.tpl.Name)
		}
		lineDesc := l.Description
		if lineDesc == "" {
			lineDesc = desc
		}
		details[i] = records.InvoiceDetail{
			Book:        g.book,
			Identity:    inv.Identity,
			Date:        inv.Date,
			Account:     counterpart,
			Reference:   ref,
			Description: lineDesc,
			Base:        codec.Round2(l.Base),
			PctVAT:      codec.Round2(l.PctVAT),
			CuotaVAT:    codec.Round2(l.CuotaVAT),
			PctRE:       codec.Round2(l.PctRE),
			CuotaRE:     codec.Round2(l.CuotaRE),
			PctIRPF:     codec.Round2(l.PctIRPF),
			CuotaIRPF:   codec.Round2(l.CuotaIRPF.Abs()),
			VATAccount:  vatAcc,
			REAccount:   reAcc,
			IRPFAccount: irpfAcc,
			Last:        i == len(inv.Lines)-1,
		}
	}

	total := records.Total(details)
	if inv.ProvidedTotal != nil && inv.ProvidedTotal.Sub(total).Abs().GreaterThan(TotalTolerance) {
		adv.Add(inv.Row, types.ErrTotalMismatch, "Invoice %s: total %s differs from computed %s.",
			ref, inv.ProvidedTotal.StringFixed(2), total.StringFixed(2))
	}

	out := make([]records.Record, 0, len(details)+1)
	out = append(out, records.Header(inv.Row, records.InvoiceHeader{
		Book:          g.book,
		Identity:      inv.Identity,
		Date:          inv.Date,
		Account:       account,
		Name:          name,
		TaxID:         inv.TaxID,
		PostalCode:    postal,
		Reference:     ref,
		Description:   desc,
		LongSII:       inv.LongSII,
		OperationDate: inv.OperationDate,
		IssueDate:     inv.IssueDate,
		Total:         total,
	}))
	for i, d := range details {
		out = append(out, records.Detail(inv.Lines[i].Row, d))
	}
	return out
}

func (g *Generator) thirdPartyAccount(inv *Invoice, link *models.ThirdPartyCompany, adv *types.Advisories) string {
	if inv.UseGenericAccount && g.tpl.GenericSubaccount != "" {
		return g.tpl.GenericSubaccount
	}
	if o := strings.TrimSpace(inv.AccountOverride); o != "" {
		if err := validation.CheckSubaccount(o, g.ndig); err != nil {
			adv.Add(inv.Row, types.ErrSubaccountTooLong, "Row %d: subaccount %s is longer than %d digits and was truncated.", inv.Row, o, g.ndig)
		}
		return o
	}
	if link != nil {
		if s := link.Subaccount(g.role); s != "" {
			return s
		}
	}
	digits := codec.Digits(inv.TaxID)
	if digits == "" {
		adv.Add(inv.Row, types.ErrInvalidTaxID, "Invoice %s: no tax id digits, using prefix account.", inv.Reference())
	}
	return codec.FitAccount(g.tpl.DefaultThirdPartyPrefix()+digits, g.ndig)
}

// vatAccounts resolves the VAT and RE accounts of a line from tipos_iva by
// percentage, falling back to the template defaults.
func (g *Generator) vatAccounts(l Line, adv *types.Advisories) (string, string) {
	var vat, re string
	for _, t := range g.tpl.VATTypes {
		if codec.EqualPct(t.Pct, l.PctVAT) {
			vat, re = t.Subaccount, t.RESubaccount
			break
		}
	}
	if vat == "" {
		vat = g.tpl.VATSubaccountDefault
	}
	if re == "" {
		re = g.tpl.RESubaccountDefault
	}
	if vat == "" && !(l.PctVAT.IsZero() && l.CuotaVAT.IsZero()) {
		adv.Add(l.Row, types.ErrTemplateIncomplete, "Row %d: no VAT account for %s%%.", l.Row, l.PctVAT.StringFixed(2))
	}
	if re == "" && !l.CuotaRE.IsZero() {
		adv.Add(l.Row, types.ErrTemplateIncomplete, "Row %d: no RE account for %s%%.", l.Row, l.PctRE.StringFixed(2))
	}
	return vat, re
}
