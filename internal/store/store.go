// =============================================================================
// Suenlace Generator - Persistence
// =============================================================================
//
// The store holds companies, templates, third parties, their per-company
// links and hand-entered invoice documents. Generators only read from it;
// the CLI writes through the same interface.
//
// Two implementations share the rules in this file:
//   - Gorm: embedded sqlite, schema grown by AutoMigrate (columns are only
//     ever added)
//   - Memory: maps behind a RWMutex, for tests and dry runs
//
// =============================================================================

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/google/uuid"
)

// Store is the persistence contract.
type Store interface {
	GetCompany(ctx context.Context, code string, year int) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	UpsertCompany(ctx context.Context, c *models.Company) error
	// DeleteCompany removes a company year with its templates, links and documents.
	DeleteCompany(ctx context.Context, code string, year int) error

	ListTemplates(ctx context.Context, kind models.TemplateKind, code string, year int) ([]models.Template, error)
	UpsertTemplate(ctx context.Context, t *models.Template) error

	ListThirdParties(ctx context.Context) ([]models.ThirdParty, error)
	UpsertThirdParty(ctx context.Context, tp *models.ThirdParty) error
	// ListThirdPartiesForCompany returns the links of a company year with their third party loaded.
	ListThirdPartiesForCompany(ctx context.Context, code string, year int) ([]models.ThirdPartyCompany, error)
	// GetThirdPartyCompany finds a link by third-party tax id or id.
	GetThirdPartyCompany(ctx context.Context, code, taxIDOrID string, year int) (*models.ThirdPartyCompany, error)
	LinkThirdParty(ctx context.Context, link *models.ThirdPartyCompany) error

	UpsertInvoiceDocument(ctx context.Context, doc *models.InvoiceDocument) error
	ListInvoiceDocuments(ctx context.Context, q DocumentQuery) ([]models.InvoiceDocument, error)
	MarkInvoicesGenerated(ctx context.Context, code string, ids []string, ts time.Time, year int) (int, error)
	// NextInvoiceNumber allocates the next number of the company's issued
	// (or rectifying) serie and advances the counter.
	NextInvoiceNumber(ctx context.Context, code string, year int, rectifying bool) (serie, number string, err error)

	IsEmpty(ctx context.Context) (bool, error)
	Close() error
}

// DocumentQuery filters invoice documents.
type DocumentQuery struct {
	CompanyCode string
	Year        int
	Kind        models.TemplateKind // empty for every kind
	PendingOnly bool
}

func (q DocumentQuery) match(d *models.InvoiceDocument) bool {
	return d.CompanyCode == q.CompanyCode && d.Year == q.Year &&
		(q.Kind == "" || d.Kind == q.Kind) &&
		(!q.PendingOnly || d.IsPending())
}

// =============================================================================
// SHARED RULES
// =============================================================================

func notFound(op, format string, args ...any) error {
	return types.NewError(op, types.ErrNotFound, fmt.Sprintf(format, args...))
}

func checkCompany(c *models.Company) error {
	if strings.TrimSpace(c.Code) == "" || c.Year == 0 {
		return fmt.Errorf("company code and year are required")
	}
	if !c.ValidNdig() {
		return fmt.Errorf("company %s: ndig %d outside [%d, %d]", c, c.Ndig, models.MinNdig, models.MaxNdig)
	}
	if c.NextNumber < 1 {
		c.NextNumber = 1
	}
	if c.NextRectNumber < 1 {
		c.NextRectNumber = 1
	}
	return nil
}

func checkTemplate(t *models.Template) error {
	if !t.Kind.Valid() {
		return fmt.Errorf("template %q: unknown kind %q", t.Name, t.Kind)
	}
	if strings.TrimSpace(t.Name) == "" || t.CompanyCode == "" || t.Year == 0 {
		return fmt.Errorf("template name, company code and year are required")
	}
	return nil
}

// prepareThirdParty validates and normalizes the tax id and assigns an id.
func prepareThirdParty(tp *models.ThirdParty) error {
	normalized, _, err := validation.ValidateTaxID(tp.TaxID)
	if err != nil {
		return err
	}
	tp.TaxID = normalized
	if tp.ID == "" {
		tp.ID = uuid.NewString()
	}
	return nil
}

// checkLinkUniqueness rejects a link that reuses, for the same role, a
// subaccount another third party already holds in the company year.
func checkLinkUniqueness(link *models.ThirdPartyCompany, existing []models.ThirdPartyCompany) error {
	for _, role := range models.Roles {
		sub := link.Subaccount(role)
		if sub == "" {
			continue
		}
		for i := range existing {
			other := &existing[i]
			if other.ThirdPartyID == link.ThirdPartyID {
				continue
			}
			if other.Subaccount(role) == sub {
				return types.NewError("store.LinkThirdParty", types.ErrDuplicateSubaccount,
					fmt.Sprintf("%s subaccount %s already linked to %s", role, sub, other.ThirdPartyID))
			}
		}
	}
	return nil
}

// prepareDocument assigns an id and moves the document to Saved. When the
// document already exists its creation and export timestamps are kept.
func prepareDocument(doc *models.InvoiceDocument, existing *models.InvoiceDocument) error {
	if doc.CompanyCode == "" || doc.Year == 0 {
		return types.NewError("store.UpsertInvoiceDocument", types.ErrInvalidDocument, "company code and year are required")
	}
	if strings.TrimSpace(doc.Number) == "" {
		return types.NewError("store.UpsertInvoiceDocument", types.ErrInvalidDocument, "invoice number is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Kind == "" {
		doc.Kind = models.KindIssued
	}
	if existing != nil {
		doc.CreatedAt = existing.CreatedAt
		if existing.GeneratedAt != nil {
			doc.Generated = true
			doc.GeneratedAt = existing.GeneratedAt
		}
	}
	doc.MarkSaved()
	return nil
}

// allocate advances the counter of c and returns the allocated serie and number.
func allocate(c *models.Company, rectifying bool) (string, string) {
	if rectifying && c.RectSerie != "" {
		n := max(c.NextRectNumber, 1)
		c.NextRectNumber = n + 1
		return c.RectSerie, strconv.Itoa(n)
	}
	n := max(c.NextNumber, 1)
	c.NextNumber = n + 1
	return c.Serie, strconv.Itoa(n)
}
