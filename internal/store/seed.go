package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/validation"
)

// Seed is the JSON seed file layout.
type Seed struct {
	Companies    []models.Company         `json:"companies"`
	Templates    []models.Template        `json:"templates"`
	ThirdParties []models.ThirdParty      `json:"third_parties"`
	Links        []SeedLink               `json:"links"`
	Invoices     []models.InvoiceDocument `json:"invoices"`
}

// SeedLink links a third party, named by tax id, to a company year.
type SeedLink struct {
	models.ThirdPartyCompany
	ThirdPartyTaxID string `json:"tax_id"`
}

// SeedStats counts what a seed inserted.
type SeedStats struct {
	Companies, Templates, ThirdParties, Links, Invoices int
}

// LoadSeed decodes a seed document and writes it through s. Companies go
// first so that templates, links and invoices find their scope.
func LoadSeed(ctx context.Context, s Store, r io.Reader) (SeedStats, error) {
	var seed Seed
	var stats SeedStats
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return stats, fmt.Errorf("decode seed: %w", err)
	}

	for i := range seed.Companies {
		if err := s.UpsertCompany(ctx, &seed.Companies[i]); err != nil {
			return stats, fmt.Errorf("seed company %s: %w", seed.Companies[i].Code, err)
		}
		stats.Companies++
	}
	for i := range seed.Templates {
		if err := s.UpsertTemplate(ctx, &seed.Templates[i]); err != nil {
			return stats, fmt.Errorf("seed template %s: %w", seed.Templates[i].Name, err)
		}
		stats.Templates++
	}

	byTaxID := map[string]string{}
	for i := range seed.ThirdParties {
		tp := &seed.ThirdParties[i]
		if err := s.UpsertThirdParty(ctx, tp); err != nil {
			return stats, fmt.Errorf("seed third party %s: %w", tp.TaxID, err)
		}
		byTaxID[tp.TaxID] = tp.ID
		stats.ThirdParties++
	}
	for i := range seed.Links {
		l := &seed.Links[i]
		if l.ThirdPartyID == "" {
			l.ThirdPartyID = byTaxID[validation.NormalizeTaxID(l.ThirdPartyTaxID)]
		}
		if err := s.LinkThirdParty(ctx, &l.ThirdPartyCompany); err != nil {
			return stats, fmt.Errorf("seed link %s: %w", l.ThirdPartyTaxID, err)
		}
		stats.Links++
	}
	for i := range seed.Invoices {
		if err := s.UpsertInvoiceDocument(ctx, &seed.Invoices[i]); err != nil {
			return stats, fmt.Errorf("seed invoice %s: %w", seed.Invoices[i].Number, err)
		}
		stats.Invoices++
	}
	return stats, nil
}

// SeedIfEmpty loads the seed file at path when the store holds nothing.
// It reports whether the seed was applied. A missing file is not an error.
func SeedIfEmpty(ctx context.Context, s Store, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	empty, err := s.IsEmpty(ctx)
	if err != nil || !empty {
		return false, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	stats, err := LoadSeed(ctx, s, f)
	if err != nil {
		return false, err
	}
	log := logger.WithComponent("store")
	log.Info().
		Str("seed", path).
		Int("companies", stats.Companies).
		Int("templates", stats.Templates).
		Int("third_parties", stats.ThirdParties).
		Int("links", stats.Links).
		Int("invoices", stats.Invoices).
		Msg("store seeded")
	return true, nil
}
