package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/validation"
)

// SaveInvoiceDocument validates doc against its company year, allocates a
// number when doc has none and stores it. Validation runs before allocation
// so a rejected document does not consume a number. The returned result
// carries the warnings of an accepted document.
func SaveInvoiceDocument(ctx context.Context, s Store, doc *models.InvoiceDocument) (*validation.ValidationResult, error) {
	company, err := s.GetCompany(ctx, doc.CompanyCode, doc.Year)
	if err != nil {
		return nil, err
	}

	needsNumber := strings.TrimSpace(doc.Number) == ""
	probe := *doc
	if needsNumber {
		probe.Number = "0"
	}
	result := validation.ValidateDocument(&probe, company)
	if err := result.Err("store.SaveInvoiceDocument"); err != nil {
		return result, err
	}

	if needsNumber {
		serie, number, err := s.NextInvoiceNumber(ctx, company.Code, company.Year, doc.Rectifying)
		if err != nil {
			return result, fmt.Errorf("allocate invoice number: %w", err)
		}
		doc.Serie, doc.Number = serie, number
	}
	if err := s.UpsertInvoiceDocument(ctx, doc); err != nil {
		return result, err
	}
	return result, nil
}
