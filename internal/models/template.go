package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TemplateKind is one of the three template flavors.
type TemplateKind string

const (
	KindBank     TemplateKind = "bank"
	KindIssued   TemplateKind = "issued"
	KindReceived TemplateKind = "received"
)

// Valid reports whether k is a known kind.
func (k TemplateKind) Valid() bool {
	return k == KindBank || k == KindIssued || k == KindReceived
}

// ParseTemplateKind validates a kind given on the command line.
func ParseTemplateKind(s string) (TemplateKind, bool) {
	k := TemplateKind(s)
	return k, k.Valid()
}

// Template drives a generator for one company and year. Bank templates use
// SubaccountBank, SubaccountDefault and Concepts; invoice templates use the
// counterpart, third-party and VAT accounts.
type Template struct {
	ID        uint      `gorm:"primaryKey" json:"-" yaml:"-"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`

	CompanyCode string       `gorm:"size:10;not null;uniqueIndex:idx_template_scope" json:"company_code" yaml:"company_code"`
	Year        int          `gorm:"not null;uniqueIndex:idx_template_scope" json:"year" yaml:"year"`
	Kind        TemplateKind `gorm:"size:10;not null;uniqueIndex:idx_template_scope" json:"kind" yaml:"kind"`
	Name        string       `gorm:"size:100;not null;uniqueIndex:idx_template_scope" json:"name" yaml:"name"`

	// SubaccountBank is the bank account of a bank template.
	SubaccountBank string `gorm:"size:12" json:"subaccount_bank,omitempty" yaml:"subaccount_bank,omitempty"`

	// SubaccountDefault is the counterpart when no concept matches (bank) or
	// the income/expense account (invoices).
	SubaccountDefault string        `gorm:"size:12" json:"subaccount_default,omitempty" yaml:"subaccount_default,omitempty"`
	Concepts          []ConceptRule `gorm:"serializer:json" json:"concepts,omitempty" yaml:"concepts,omitempty"`

	// Invoice templates
	ThirdPartyPrefix     string    `gorm:"size:12" json:"third_party_prefix,omitempty" yaml:"third_party_prefix,omitempty"`
	GenericSubaccount    string    `gorm:"size:12" json:"generic_subaccount,omitempty" yaml:"generic_subaccount,omitempty"`
	VATSubaccountDefault string    `gorm:"size:12" json:"vat_subaccount_default,omitempty" yaml:"vat_subaccount_default,omitempty"`
	RESubaccountDefault  string    `gorm:"size:12" json:"re_subaccount_default,omitempty" yaml:"re_subaccount_default,omitempty"`
	IRPFSubaccount       string    `gorm:"size:12" json:"irpf_subaccount,omitempty" yaml:"irpf_subaccount,omitempty"`
	VATTypes             []VATType `gorm:"serializer:json" json:"tipos_iva,omitempty" yaml:"tipos_iva,omitempty"`

	Sheet   string  `gorm:"size:100" json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Mapping Mapping `gorm:"serializer:json" json:"mapping" yaml:"mapping"`
}

// ConceptRule maps a glob over the lowercased concept text to a counterpart.
type ConceptRule struct {
	Pattern    string `json:"pattern" yaml:"pattern"`
	Subaccount string `json:"subaccount" yaml:"subaccount"`
}

// VATType binds a VAT percentage to its accounts.
type VATType struct {
	Pct          decimal.Decimal `json:"pct" yaml:"pct"`
	Subaccount   string          `json:"subaccount" yaml:"subaccount"`
	RESubaccount string          `json:"re_subaccount,omitempty" yaml:"re_subaccount,omitempty"`
}

// Mapping binds semantic names to spreadsheet column letters.
type Mapping struct {
	// FirstRow is the 1-based first data row.
	FirstRow int `json:"first_row" yaml:"first_row"`

	// IgnoreCond skips rows matching "COL=value".
	IgnoreCond string `json:"ignore_cond,omitempty" yaml:"ignore_cond,omitempty"`

	// GenericAccountCond flags rows matching "COL=value" for the generic account.
	GenericAccountCond string `json:"generic_account_cond,omitempty" yaml:"generic_account_cond,omitempty"`

	// Columns maps semantic name to column letter.
	Columns map[string]string `json:"columns" yaml:"columns"`
}

// IsInvoice reports whether k drives the invoice generator.
func (k TemplateKind) IsInvoice() bool {
	return k == KindIssued || k == KindReceived
}

// DefaultThirdPartyPrefix is the chart group for clients (430) or suppliers (400).
func (t *Template) DefaultThirdPartyPrefix() string {
	if t.ThirdPartyPrefix != "" {
		return t.ThirdPartyPrefix
	}
	if t.Kind == KindReceived {
		return "400"
	}
	return "430"
}
