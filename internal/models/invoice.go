package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus tracks an invoice document through Draft, Saved and Generated.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusSaved     DocumentStatus = "saved"
	StatusGenerated DocumentStatus = "generated"
)

// DiscountType selects how a discount value is read.
type DiscountType string

const (
	DiscountNone   DiscountType = "none"
	DiscountPct    DiscountType = "pct"
	DiscountAmount DiscountType = "amount"
)

// LineKind separates priced lines from printed-only observations.
type LineKind string

const (
	LineNormal      LineKind = "normal"
	LineObservation LineKind = "observation"
)

// InvoiceDocument is an invoice entered by hand for a company year.
type InvoiceDocument struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyCode string       `gorm:"size:10;not null;index:idx_document_scope" json:"company_code"`
	Year        int          `gorm:"not null;index:idx_document_scope" json:"year"`
	Kind        TemplateKind `gorm:"size:10;not null" json:"kind"`
	Rectifying  bool         `json:"rectifying,omitempty"`

	Serie         string `gorm:"size:5" json:"serie"`
	Number        string `gorm:"size:20;not null" json:"number"`
	LongSIINumber string `gorm:"size:60" json:"long_sii_number,omitempty"`

	// Dates are kept as entered (YYYY-MM-DD or any layout Date8 accepts).
	IssueDate      string `gorm:"size:10" json:"issue_date"`
	AccountingDate string `gorm:"size:10" json:"accounting_date"`
	OperationDate  string `gorm:"size:10" json:"operation_date,omitempty"`
	AllowOutOfYear bool   `json:"allow_out_of_year,omitempty"`

	TaxID            string `gorm:"size:20" json:"tax_id"`
	Name             string `gorm:"size:200" json:"name"`
	PostalCode       string `gorm:"size:10" json:"postal_code,omitempty"`
	ClientSubaccount string `gorm:"size:12" json:"client_subaccount,omitempty"`
	PaymentForm      string `gorm:"size:100" json:"payment_form,omitempty"`
	BankAccount      string `gorm:"size:34" json:"bank_account,omitempty"`
	Currency         string `gorm:"size:3" json:"currency,omitempty"`

	DiscountType  DiscountType    `gorm:"size:10" json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `gorm:"type:varchar(32)" json:"discount_value"`

	Withholding Withholding `gorm:"embedded;embeddedPrefix:withholding_" json:"withholding"`

	Status      DocumentStatus `gorm:"size:10;not null" json:"status"`
	Generated   bool           `json:"generated"`
	GeneratedAt *time.Time     `json:"generated_at,omitempty"`

	Lines []Line `gorm:"serializer:json" json:"lines"`
}

// Withholding is the invoice-level IRPF deduction.
type Withholding struct {
	Applies bool            `json:"applies"`
	Pct     decimal.Decimal `gorm:"type:varchar(32)" json:"pct"`
	Manual  bool            `json:"manual"`
	Base    decimal.Decimal `gorm:"type:varchar(32)" json:"base"`
	Amount  decimal.Decimal `gorm:"type:varchar(32)" json:"amount"`
}

// Line is one row of an invoice document.
type Line struct {
	Concept       string          `json:"concept"`
	Units         decimal.Decimal `json:"units"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Base          decimal.Decimal `json:"base"`
	DiscountType  DiscountType    `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	PctVAT        decimal.Decimal `json:"pct_vat"`
	CuotaVAT      decimal.Decimal `json:"cuota_vat"`
	PctRE         decimal.Decimal `json:"pct_re"`
	CuotaRE       decimal.Decimal `json:"cuota_re"`
	PctIRPF       decimal.Decimal `json:"pct_irpf"`
	CuotaIRPF     decimal.Decimal `json:"cuota_irpf"`
	Kind          LineKind        `json:"kind,omitempty"`
}

// IsObservation reports whether the line only carries text.
func (l Line) IsObservation() bool {
	return l.Kind == LineObservation
}

// Identity is the invoice grouping key: the long SII number when present,
// otherwise serie|number.
func (d *InvoiceDocument) Identity() string {
	if s := strings.TrimSpace(d.LongSIINumber); s != "" {
		return s
	}
	return strings.TrimSpace(d.Serie) + "|" + strings.TrimSpace(d.Number)
}

// IsPending reports whether the document still has to be emitted.
func (d *InvoiceDocument) IsPending() bool {
	return d.Status != StatusGenerated
}

// MarkSaved moves the document to Saved. A previously generated document
// keeps its GeneratedAt timestamp.
func (d *InvoiceDocument) MarkSaved() {
	d.Status = StatusSaved
}

// MarkGenerated records an export at ts.
func (d *InvoiceDocument) MarkGenerated(ts time.Time) {
	d.Status = StatusGenerated
	d.Generated = true
	d.GeneratedAt = &ts
}
