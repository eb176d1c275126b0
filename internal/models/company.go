package models

import (
	"fmt"
	"time"
)

// Company is a tenant for one fiscal year. (Code, Year) is unique.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"-" yaml:"-"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`

	Code string `gorm:"size:10;not null;uniqueIndex:idx_company_year" json:"code" yaml:"code"`
	Year int    `gorm:"not null;uniqueIndex:idx_company_year" json:"year" yaml:"year"`

	// Identity and address
	Name       string `gorm:"size:200" json:"name" yaml:"name"`
	TaxID      string `gorm:"size:20" json:"tax_id" yaml:"tax_id"`
	Address    string `gorm:"size:200" json:"address,omitempty" yaml:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty" yaml:"city,omitempty"`
	PostalCode string `gorm:"size:10" json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Province   string `gorm:"size:100" json:"province,omitempty" yaml:"province,omitempty"`

	// Ndig is the digit count of the chart of accounts, within [4, 12].
	Ndig int `gorm:"not null" json:"ndig" yaml:"ndig"`

	// Issued invoice numbering
	Serie          string `gorm:"size:5" json:"serie" yaml:"serie"`
	NextNumber     int    `json:"next_number" yaml:"next_number"`
	RectSerie      string `gorm:"size:5" json:"rect_serie,omitempty" yaml:"rect_serie,omitempty"`
	NextRectNumber int    `json:"next_rect_number,omitempty" yaml:"next_rect_number,omitempty"`

	BankAccounts []string `gorm:"serializer:json" json:"bank_accounts,omitempty" yaml:"bank_accounts,omitempty"`
	LogoPath     string   `gorm:"size:500" json:"logo_path,omitempty" yaml:"logo_path,omitempty"`
	Active       bool     `json:"active" yaml:"active"`
}

// Chart digit bounds.
const (
	MinNdig = 4
	MaxNdig = 12
)

// ValidNdig reports whether the chart digit count is within bounds.
func (c *Company) ValidNdig() bool {
	return c.Ndig >= MinNdig && c.Ndig <= MaxNdig
}

// String identifies the company in logs and messages.
func (c *Company) String() string {
	return fmt.Sprintf("%s/%d", c.Code, c.Year)
}
