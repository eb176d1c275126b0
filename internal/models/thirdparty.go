package models

import "time"

// ThirdParty is a client or supplier shared by every company.
type ThirdParty struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`

	// TaxID is stored normalized and is unique.
	TaxID      string `gorm:"size:20;not null;uniqueIndex" json:"tax_id" yaml:"tax_id"`
	Name       string `gorm:"size:200;not null" json:"name" yaml:"name"`
	Address    string `gorm:"size:200" json:"address,omitempty" yaml:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty" yaml:"city,omitempty"`
	PostalCode string `gorm:"size:10" json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Province   string `gorm:"size:100" json:"province,omitempty" yaml:"province,omitempty"`
	Country    string `gorm:"size:2" json:"country,omitempty" yaml:"country,omitempty"`
	Email      string `gorm:"size:200" json:"email,omitempty" yaml:"email,omitempty"`
}

// Role is the purpose of a linked subaccount.
type Role string

const (
	RoleClient   Role = "client"
	RoleSupplier Role = "supplier"
	RoleIncome   Role = "income"
	RoleExpense  Role = "expense"
)

// Roles lists every link role.
var Roles = []Role{RoleClient, RoleSupplier, RoleIncome, RoleExpense}

// ThirdPartyCompany links a third party to a company year with up to four
// subaccounts. Within a company year each subaccount appears once per role.
type ThirdPartyCompany struct {
	ID        uint      `gorm:"primaryKey" json:"-" yaml:"-"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`

	CompanyCode  string      `gorm:"size:10;not null;uniqueIndex:idx_link" json:"company_code" yaml:"company_code"`
	Year         int         `gorm:"not null;uniqueIndex:idx_link" json:"year" yaml:"year"`
	ThirdPartyID string      `gorm:"size:36;not null;uniqueIndex:idx_link" json:"third_party_id" yaml:"third_party_id"`
	ThirdParty   *ThirdParty `gorm:"foreignKey:ThirdPartyID" json:"third_party,omitempty" yaml:"-"`

	SubaccountClient   string `gorm:"size:12" json:"subaccount_client,omitempty" yaml:"subaccount_client,omitempty"`
	SubaccountSupplier string `gorm:"size:12" json:"subaccount_supplier,omitempty" yaml:"subaccount_supplier,omitempty"`
	SubaccountIncome   string `gorm:"size:12" json:"subaccount_income,omitempty" yaml:"subaccount_income,omitempty"`
	SubaccountExpense  string `gorm:"size:12" json:"subaccount_expense,omitempty" yaml:"subaccount_expense,omitempty"`
}

// Subaccount returns the subaccount linked for role, or "".
func (l *ThirdPartyCompany) Subaccount(role Role) string {
	switch role {
	case RoleClient:
		return l.SubaccountClient
	case RoleSupplier:
		return l.SubaccountSupplier
	case RoleIncome:
		return l.SubaccountIncome
	case RoleExpense:
		return l.SubaccountExpense
	}
	return ""
}

// TaxID returns the linked third party's tax id when loaded.
func (l *ThirdPartyCompany) TaxID() string {
	if l.ThirdParty == nil {
		return ""
	}
	return l.ThirdParty.TaxID
}
