package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
)

// CheckSubaccount reports ErrSubaccountTooLong when raw carries more digits
// than the chart of accounts allows.
func CheckSubaccount(raw string, ndig int) error {
	if n := len(codec.Digits(raw)); n > ndig {
		return types.NewError("validation.CheckSubaccount", types.ErrSubaccountTooLong,
			fmt.Sprintf("%s has %d digits, chart allows %d", raw, n, ndig))
	}
	return nil
}

// ValidateDocument checks an invoice document before it is saved.
func ValidateDocument(doc *models.InvoiceDocument, company *models.Company) *ValidationResult {
	r := newResult()

	if strings.TrimSpace(doc.Number) == "" {
		r.fail(types.ErrInvalidDocument, "number", "", "required", "invoice number is required")
	}

	date, ok := codec.Date8(doc.AccountingDate)
	if !ok {
		r.fail(types.ErrInvalidDate, "accounting_date", doc.AccountingDate, "date", "accounting date is not a valid date")
	} else if !doc.AllowOutOfYear && date[:4] != fmt.Sprintf("%04d", company.Year) {
		r.fail(types.ErrInvalidDocument, "accounting_date", doc.AccountingDate, "fiscal_year",
			"accounting date falls outside fiscal year %d", company.Year)
	}
	if doc.IssueDate != "" {
		if _, ok := codec.Date8(doc.IssueDate); !ok {
			r.fail(types.ErrInvalidDate, "issue_date", doc.IssueDate, "date", "issue date is not a valid date")
		}
	}

	if sub := strings.TrimSpace(doc.ClientSubaccount); sub != "" {
		digits := codec.Digits(sub)
		switch {
		case digits != sub:
			r.fail(types.ErrInvalidDocument, "client_subaccount", sub, "digits", "subaccount must contain digits only")
		case len(digits) > company.Ndig:
			r.fail(types.ErrSubaccountTooLong, "client_subaccount", sub, "ndig", "subaccount has %d digits, chart allows %d", len(digits), company.Ndig)
		case len(digits) < company.Ndig:
			r.fail(types.ErrInvalidDocument, "client_subaccount", sub, "ndig", "subaccount has %d digits, chart requires %d", len(digits), company.Ndig)
		}
	}

	if doc.TaxID != "" {
		if _, _, err := ValidateTaxID(doc.TaxID); err != nil {
			r.warn("tax_id", doc.TaxID, "checksum", "tax id does not pass the checksum")
		}
	}

	priced := 0
	for i, l := range doc.Lines {
		if l.IsObservation() {
			continue
		}
		priced++
		if l.PctVAT.IsNegative() || l.PctRE.IsNegative() || l.PctIRPF.IsNegative() {
			r.fail(types.ErrInvalidDocument, fmt.Sprintf("lines[%d]", i), "", "pct", "percentages cannot be negative")
		}
	}
	if priced == 0 {
		r.warn("lines", "", "required", "invoice has no priced lines")
	}

	return r
}
