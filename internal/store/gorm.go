package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm is the sqlite-backed store.
type Gorm struct {
	db *gorm.DB

	// mu serializes document writes and number allocation.
	mu sync.Mutex
}

var _ Store = (*Gorm)(nil)

// allModels lists every table, in migration order.
var allModels = []any{
	&models.Company{}, &models.Template{}, &models.ThirdParty{},
	&models.ThirdPartyCompany{}, &models.InvoiceDocument{},
}

// Open opens (or creates) the sqlite database at dsn and migrates it.
func Open(dsn string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dsn, err)
	}
	return New(db)
}

// New wraps an open database and runs the additive migration.
func New(db *gorm.DB) (*Gorm, error) {
	for _, m := range allModels {
		if err := db.AutoMigrate(m); err != nil {
			return nil, fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	log := logger.WithComponent("store")
	log.Debug().Int("tables", len(allModels)).Msg("store migrated")
	return &Gorm{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Gorm) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// =============================================================================
// COMPANIES
// =============================================================================

func (s *Gorm) GetCompany(ctx context.Context, code string, year int) (*models.Company, error) {
	var c models.Company
	err := s.db.WithContext(ctx).Where("code = ? AND year = ?", code, year).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("store.GetCompany", "company %s/%d", code, year)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Gorm) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var out []models.Company
	err := s.db.WithContext(ctx).Order("code, year").Find(&out).Error
	return out, err
}

func (s *Gorm) UpsertCompany(ctx context.Context, c *models.Company) error {
	if err := checkCompany(c); err != nil {
		return err
	}
	var existing models.Company
	err := s.db.WithContext(ctx).Where("code = ? AND year = ?", c.Code, c.Year).First(&existing).Error
	switch {
	case err == nil:
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *Gorm) DeleteCompany(ctx context.Context, code string, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("code = ? AND year = ?", code, year).Delete(&models.Company{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("store.DeleteCompany", "company %s/%d", code, year)
		}
		scope := "company_code = ? AND year = ?"
		for _, m := range []any{&models.Template{}, &models.ThirdPartyCompany{}, &models.InvoiceDocument{}} {
			if err := tx.Where(scope, code, year).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (s *Gorm) ListTemplates(ctx context.Context, kind models.TemplateKind, code string, year int) ([]models.Template, error) {
	var out []models.Template
	err := s.db.WithContext(ctx).
		Where("kind = ? AND company_code = ? AND year = ?", kind, code, year).
		Order("name").Find(&out).Error
	return out, err
}

func (s *Gorm) UpsertTemplate(ctx context.Context, t *models.Template) error {
	if err := checkTemplate(t); err != nil {
		return err
	}
	var existing models.Template
	err := s.db.WithContext(ctx).
		Where("kind = ? AND company_code = ? AND year = ? AND name = ?", t.Kind, t.CompanyCode, t.Year, t.Name).
		First(&existing).Error
	switch {
	case err == nil:
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.db.WithContext(ctx).Save(t).Error
}

// =============================================================================
// THIRD PARTIES
// =============================================================================

func (s *Gorm) ListThirdParties(ctx context.Context) ([]models.ThirdParty, error) {
	var out []models.ThirdParty
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (s *Gorm) UpsertThirdParty(ctx context.Context, tp *models.ThirdParty) error {
	if err := prepareThirdParty(tp); err != nil {
		return err
	}
	var clash models.ThirdParty
	err := s.db.WithContext(ctx).Where("tax_id = ? AND id <> ?", tp.TaxID, tp.ID).First(&clash).Error
	switch {
	case err == nil:
		return types.NewError("store.UpsertThirdParty", types.ErrDuplicateTaxID,
			fmt.Sprintf("%s already belongs to %s", tp.TaxID, clash.Name))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.db.WithContext(ctx).Save(tp).Error
}

func (s *Gorm) ListThirdPartiesForCompany(ctx context.Context, code string, year int) ([]models.ThirdPartyCompany, error) {
	var out []models.ThirdPartyCompany
	err := s.db.WithContext(ctx).Preload("ThirdParty").
		Where("company_code = ? AND year = ?", code, year).
		Order("id").Find(&out).Error
	return out, err
}

func (s *Gorm) GetThirdPartyCompany(ctx context.Context, code, taxIDOrID string, year int) (*models.ThirdPartyCompany, error) {
	var tp models.ThirdParty
	err := s.db.WithContext(ctx).
		Where("tax_id = ? OR id = ?", validation.NormalizeTaxID(taxIDOrID), taxIDOrID).
		First(&tp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("store.GetThirdPartyCompany", "third party %s", taxIDOrID)
	}
	if err != nil {
		return nil, err
	}

	var link models.ThirdPartyCompany
	err = s.db.WithContext(ctx).
		Where("company_code = ? AND year = ? AND third_party_id = ?", code, year, tp.ID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("store.GetThirdPartyCompany", "%s not linked to %s/%d", taxIDOrID, code, year)
	}
	if err != nil {
		return nil, err
	}
	link.ThirdParty = &tp
	return &link, nil
}

func (s *Gorm) LinkThirdParty(ctx context.Context, link *models.ThirdPartyCompany) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tp models.ThirdParty
		if err := tx.Where("id = ?", link.ThirdPartyID).First(&tp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("store.LinkThirdParty", "third party %s", link.ThirdPartyID)
			}
			return err
		}

		var existing []models.ThirdPartyCompany
		if err := tx.Where("company_code = ? AND year = ?", link.CompanyCode, link.Year).Find(&existing).Error; err != nil {
			return err
		}
		if err := checkLinkUniqueness(link, existing); err != nil {
			return err
		}
		for _, e := range existing {
			if e.ThirdPartyID == link.ThirdPartyID {
				link.ID = e.ID
				link.CreatedAt = e.CreatedAt
			}
		}
		return tx.Omit("ThirdParty").Save(link).Error
	})
}

// =============================================================================
// INVOICE DOCUMENTS
// =============================================================================

func (s *Gorm) UpsertInvoiceDocument(ctx context.Context, doc *models.InvoiceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing *models.InvoiceDocument
	if doc.ID != "" {
		var prev models.InvoiceDocument
		err := s.db.WithContext(ctx).Where("id = ?", doc.ID).First(&prev).Error
		switch {
		case err == nil:
			existing = &prev
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if err := prepareDocument(doc, existing); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(doc).Error
}

func (s *Gorm) ListInvoiceDocuments(ctx context.Context, q DocumentQuery) ([]models.InvoiceDocument, error) {
	tx := s.db.WithContext(ctx).Where("company_code = ? AND year = ?", q.CompanyCode, q.Year)
	if q.Kind != "" {
		tx = tx.Where("kind = ?", q.Kind)
	}
	if q.PendingOnly {
		tx = tx.Where("status <> ?", models.StatusGenerated)
	}
	var out []models.InvoiceDocument
	err := tx.Order("accounting_date, serie, number").Find(&out).Error
	return out, err
}

func (s *Gorm) MarkInvoicesGenerated(ctx context.Context, code string, ids []string, ts time.Time, year int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.db.WithContext(ctx).Model(&models.InvoiceDocument{}).
		Where("company_code = ? AND year = ? AND id IN ?", code, year, ids).
		Updates(map[string]any{
			"status":       models.StatusGenerated,
			"generated":    true,
			"generated_at": ts,
		})
	return int(res.RowsAffected), res.Error
}

func (s *Gorm) NextInvoiceNumber(ctx context.Context, code string, year int, rectifying bool) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var serie, number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Company
		err := tx.Where("code = ? AND year = ?", code, year).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("store.NextInvoiceNumber", "company %s/%d", code, year)
		}
		if err != nil {
			return err
		}
		serie, number = allocate(&c, rectifying)
		return tx.Model(&c).Updates(map[string]any{
			"next_number":      c.NextNumber,
			"next_rect_number": c.NextRectNumber,
		}).Error
	})
	return serie, number, err
}

func (s *Gorm) IsEmpty(ctx context.Context) (bool, error) {
	for _, m := range allModels {
		var n int64
		if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}
