package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	logger.Silence()
}

// eachStore runs fn against a fresh sqlite store and a fresh memory store.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("gorm", func(t *testing.T) {
		// A unique in-memory database per test avoids cross-test collisions.
		g, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { g.Close() })
		fn(t, g)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func seedCompany(t *testing.T, s Store) *models.Company {
	t.Helper()
	c := &models.Company{Code: "42", Year: 2025, Name: "Demo SL", Ndig: 8, Serie: "A", RectSerie: "R"}
	if err := s.UpsertCompany(context.Background(), c); err != nil {
		t.Fatalf("UpsertCompany: %v", err)
	}
	return c
}

func TestCompanies(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if empty, _ := s.IsEmpty(ctx); !empty {
			t.Fatal("new store not empty")
		}
		seedCompany(t, s)

		got, err := s.GetCompany(ctx, "42", 2025)
		if err != nil || got.Name != "Demo SL" || got.NextNumber != 1 {
			t.Fatalf("GetCompany = %+v, %v", got, err)
		}
		if _, err := s.GetCompany(ctx, "42", 2024); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("missing company err = %v", err)
		}

		got.Name = "Demo Renamed SL"
		if err := s.UpsertCompany(ctx, got); err != nil {
			t.Fatal(err)
		}
		list, _ := s.ListCompanies(ctx)
		if len(list) != 1 || list[0].Name != "Demo Renamed SL" {
			t.Errorf("ListCompanies = %+v", list)
		}

		if err := s.UpsertCompany(ctx, &models.Company{Code: "7", Year: 2025, Ndig: 3}); err == nil {
			t.Error("ndig 3 accepted")
		}
		if empty, _ := s.IsEmpty(ctx); empty {
			t.Error("store with a company reported empty")
		}
	})
}

func TestTemplates(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tpl := &models.Template{
			CompanyCode: "42", Year: 2025, Kind: models.KindIssued, Name: "ventas",
			SubaccountDefault: "70000000",
			VATTypes:          []models.VATType{{Pct: decimal.RequireFromString("21"), Subaccount: "47700021"}},
			Mapping:           models.Mapping{FirstRow: 2, Columns: map[string]string{"Base": "C"}},
		}
		if err := s.UpsertTemplate(ctx, tpl); err != nil {
			t.Fatal(err)
		}
		again := *tpl
		again.ID = 0
		again.IRPFSubaccount = "47300000"
		if err := s.UpsertTemplate(ctx, &again); err != nil {
			t.Fatal(err)
		}

		list, err := s.ListTemplates(ctx, models.KindIssued, "42", 2025)
		if err != nil || len(list) != 1 {
			t.Fatalf("ListTemplates = %d, %v", len(list), err)
		}
		got := list[0]
		if got.IRPFSubaccount != "47300000" || got.Mapping.Columns["Base"] != "C" {
			t.Errorf("template = %+v", got)
		}
		if len(got.VATTypes) != 1 || !got.VATTypes[0].Pct.Equal(decimal.NewFromInt(21)) {
			t.Errorf("tipos_iva = %+v", got.VATTypes)
		}
		if other, _ := s.ListTemplates(ctx, models.KindBank, "42", 2025); len(other) != 0 {
			t.Errorf("bank templates = %d", len(other))
		}
		if err := s.UpsertTemplate(ctx, &models.Template{CompanyCode: "42", Year: 2025, Kind: "cash", Name: "x"}); err == nil {
			t.Error("unknown kind accepted")
		}
	})
}

func TestThirdPartiesAndLinks(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCompany(t, s)

		juan := &models.ThirdParty{TaxID: "12345678-z", Name: "Juan"}
		if err := s.UpsertThirdParty(ctx, juan); err != nil {
			t.Fatal(err)
		}
		if juan.ID == "" || juan.TaxID != "12345678Z" {
			t.Errorf("third party not normalized: %+v", juan)
		}
		if err := s.UpsertThirdParty(ctx, &models.ThirdParty{TaxID: "12345678A", Name: "Bad"}); !errors.Is(err, types.ErrInvalidTaxID) {
			t.Errorf("bad checksum err = %v", err)
		}
		if err := s.UpsertThirdParty(ctx, &models.ThirdParty{TaxID: "12345678Z", Name: "Copy"}); !errors.Is(err, types.ErrDuplicateTaxID) {
			t.Errorf("duplicate err = %v", err)
		}
		juan.Email = "juan@example.com"
		if err := s.UpsertThirdParty(ctx, juan); err != nil {
			t.Errorf("update own tax id: %v", err)
		}

		acme := &models.ThirdParty{TaxID: "B12345674", Name: "Acme SL"}
		if err := s.UpsertThirdParty(ctx, acme); err != nil {
			t.Fatal(err)
		}

		link := &models.ThirdPartyCompany{CompanyCode: "42", Year: 2025, ThirdPartyID: juan.ID, SubaccountClient: "43000001"}
		if err := s.LinkThirdParty(ctx, link); err != nil {
			t.Fatal(err)
		}
		clash := &models.ThirdPartyCompany{CompanyCode: "42", Year: 2025, ThirdPartyID: acme.ID, SubaccountClient: "43000001"}
		if err := s.LinkThirdParty(ctx, clash); !errors.Is(err, types.ErrDuplicateSubaccount) {
			t.Errorf("reused subaccount err = %v", err)
		}
		clash.SubaccountClient = "43000002"
		clash.SubaccountSupplier = "43000001"
		if err := s.LinkThirdParty(ctx, clash); err != nil {
			t.Errorf("same digits under another role: %v", err)
		}
		link.SubaccountIncome = "70500000"
		if err := s.LinkThirdParty(ctx, link); err != nil {
			t.Errorf("relink: %v", err)
		}

		links, _ := s.ListThirdPartiesForCompany(ctx, "42", 2025)
		if len(links) != 2 {
			t.Fatalf("links = %d", len(links))
		}
		for _, l := range links {
			if l.ThirdParty == nil {
				t.Fatalf("link %s without third party", l.ThirdPartyID)
			}
		}

		got, err := s.GetThirdPartyCompany(ctx, "42", "12.345.678-Z", 2025)
		if err != nil || got.SubaccountIncome != "70500000" || got.TaxID() != "12345678Z" {
			t.Fatalf("GetThirdPartyCompany by tax id = %+v, %v", got, err)
		}
		if _, err := s.GetThirdPartyCompany(ctx, "42", acme.ID, 2025); err != nil {
			t.Errorf("by id: %v", err)
		}
		if _, err := s.GetThirdPartyCompany(ctx, "42", "12345678Z", 2024); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("other year err = %v", err)
		}
	})
}

func TestInvoiceDocumentLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCompany(t, s)

		doc := &models.InvoiceDocument{
			CompanyCode: "42", Year: 2025, Kind: models.KindIssued, Serie: "A", Number: "1",
			AccountingDate: "2025-02-01", Status: models.StatusDraft,
			Lines: []models.Line{{Concept: "Servicio", Base: decimal.NewFromInt(100), PctVAT: decimal.NewFromInt(21)}},
		}
		if err := s.UpsertInvoiceDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
		if doc.ID == "" || doc.Status != models.StatusSaved {
			t.Fatalf("saved doc = %+v", doc)
		}
		if err := s.UpsertInvoiceDocument(ctx, &models.InvoiceDocument{CompanyCode: "42", Year: 2025}); !errors.Is(err, types.ErrInvalidDocument) {
			t.Errorf("numberless doc err = %v", err)
		}

		q := DocumentQuery{CompanyCode: "42", Year: 2025, Kind: models.KindIssued, PendingOnly: true}
		pending, _ := s.ListInvoiceDocuments(ctx, q)
		if len(pending) != 1 || !pending[0].Lines[0].Base.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("pending = %+v", pending)
		}

		ts := time.Date(2025, 2, 2, 9, 30, 0, 0, time.UTC)
		n, err := s.MarkInvoicesGenerated(ctx, "42", []string{doc.ID, "unknown"}, ts, 2025)
		if err != nil || n != 1 {
			t.Fatalf("MarkInvoicesGenerated = %d, %v", n, err)
		}
		if pending, _ = s.ListInvoiceDocuments(ctx, q); len(pending) != 0 {
			t.Errorf("generated doc still pending")
		}

		all, _ := s.ListInvoiceDocuments(ctx, DocumentQuery{CompanyCode: "42", Year: 2025})
		if len(all) != 1 || all[0].Status != models.StatusGenerated {
			t.Fatalf("all = %+v", all)
		}
		again := all[0]
		again.Name = "Cliente corregido"
		again.GeneratedAt = nil
		if err := s.UpsertInvoiceDocument(ctx, &again); err != nil {
			t.Fatal(err)
		}
		pending, _ = s.ListInvoiceDocuments(ctx, q)
		if len(pending) != 1 {
			t.Fatalf("edited doc not pending")
		}
		if pending[0].GeneratedAt == nil || !pending[0].GeneratedAt.Equal(ts) {
			t.Errorf("GeneratedAt lost: %v", pending[0].GeneratedAt)
		}
	})
}

func TestNextInvoiceNumber(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCompany(t, s)
		var got []string
		for _, rect := range []bool{false, false, true, false} {
			serie, number, err := s.NextInvoiceNumber(ctx, "42", 2025, rect)
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, serie+number)
		}
		if strings.Join(got, ",") != "A1,A2,R1,A3" {
			t.Errorf("numbers = %v", got)
		}
		c, _ := s.GetCompany(ctx, "42", 2025)
		if c.NextNumber != 4 || c.NextRectNumber != 2 {
			t.Errorf("counters = %d/%d", c.NextNumber, c.NextRectNumber)
		}
		if _, _, err := s.NextInvoiceNumber(ctx, "9", 2025, false); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("unknown company err = %v", err)
		}
	})
}

func TestDeleteCompanyCascades(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCompany(t, s)
		other := &models.Company{Code: "42", Year: 2026, Ndig: 8}
		if err := s.UpsertCompany(ctx, other); err != nil {
			t.Fatal(err)
		}
		tp := &models.ThirdParty{TaxID: "B12345674", Name: "Acme"}
		_ = s.UpsertThirdParty(ctx, tp)
		_ = s.UpsertTemplate(ctx, &models.Template{CompanyCode: "42", Year: 2025, Kind: models.KindBank, Name: "b"})
		_ = s.LinkThirdParty(ctx, &models.ThirdPartyCompany{CompanyCode: "42", Year: 2025, ThirdPartyID: tp.ID})
		_ = s.LinkThirdParty(ctx, &models.ThirdPartyCompany{CompanyCode: "42", Year: 2026, ThirdPartyID: tp.ID})
		_ = s.UpsertInvoiceDocument(ctx, &models.InvoiceDocument{CompanyCode: "42", Year: 2025, Number: "1"})

		if err := s.DeleteCompany(ctx, "42", 2025); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetCompany(ctx, "42", 2025); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("company survived: %v", err)
		}
		if l, _ := s.ListTemplates(ctx, models.KindBank, "42", 2025); len(l) != 0 {
			t.Error("templates survived")
		}
		if l, _ := s.ListThirdPartiesForCompany(ctx, "42", 2025); len(l) != 0 {
			t.Error("links survived")
		}
		if l, _ := s.ListThirdPartiesForCompany(ctx, "42", 2026); len(l) != 1 {
			t.Error("other year's link removed")
		}
		if d, _ := s.ListInvoiceDocuments(ctx, DocumentQuery{CompanyCode: "42", Year: 2025}); len(d) != 0 {
			t.Error("documents survived")
		}
		if tps, _ := s.ListThirdParties(ctx); len(tps) != 1 {
			t.Error("third parties are shared and must survive")
		}
		if err := s.DeleteCompany(ctx, "42", 2025); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("second delete err = %v", err)
		}
	})
}

const seedJSON = `{
  "companies": [{"code": "42", "year": 2025, "name": "Demo SL", "ndig": 8, "serie": "A", "next_number": 5}],
  "templates": [{"company_code": "42", "year": 2025, "kind": "bank", "name": "banco",
                 "subaccount_bank": "57200001", "subaccount_default": "62900000",
                 "concepts": [{"pattern": "*comisi*", "subaccount": "62600000"}],
                 "mapping": {"first_row": 2, "columns": {"Fecha": "A", "Concepto": "B", "Importe": "D"}}}],
  "third_parties": [{"tax_id": "B12345674", "name": "Acme SL"}],
  "links": [{"company_code": "42", "year": 2025, "tax_id": "b-12345674", "subaccount_client": "43000009"}],
  "invoices": [{"company_code": "42", "year": 2025, "serie": "A", "number": "4", "accounting_date": "2025-01-31",
                "lines": [{"concept": "Cuota", "units": "1", "unit_price": "50", "pct_vat": "21"}]}]
}`

func TestSeedIfEmpty(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		stats, err := LoadSeed(ctx, s, strings.NewReader(seedJSON))
		if err != nil {
			t.Fatal(err)
		}
		if stats != (SeedStats{Companies: 1, Templates: 1, ThirdParties: 1, Links: 1, Invoices: 1}) {
			t.Errorf("stats = %+v", stats)
		}
		link, err := s.GetThirdPartyCompany(ctx, "42", "B12345674", 2025)
		if err != nil || link.SubaccountClient != "43000009" {
			t.Errorf("seeded link = %+v, %v", link, err)
		}
		tpls, _ := s.ListTemplates(ctx, models.KindBank, "42", 2025)
		if len(tpls) != 1 || tpls[0].Concepts[0].Subaccount != "62600000" {
			t.Errorf("seeded template = %+v", tpls)
		}

		// A populated store is never reseeded.
		applied, err := SeedIfEmpty(ctx, s, "does-not-matter.json")
		if err != nil || applied {
			t.Errorf("SeedIfEmpty on populated store = %v, %v", applied, err)
		}
	})
}

func TestSaveInvoiceDocument(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCompany(t, s)
		d := decimal.RequireFromString

		doc := &models.InvoiceDocument{
			CompanyCode: "42", Year: 2025, AccountingDate: "2025-02-10", TaxID: "B00000001",
			Lines: []models.Line{{Concept: "Servicio", Units: d("1"), UnitPrice: d("10"), PctVAT: d("21")}},
		}
		res, err := SaveInvoiceDocument(ctx, s, doc)
		if err != nil {
			t.Fatalf("SaveInvoiceDocument: %v", err)
		}
		if doc.Serie != "A" || doc.Number != "1" || doc.ID == "" {
			t.Errorf("allocated %s%s id=%q", doc.Serie, doc.Number, doc.ID)
		}
		if res.WarningCount != 1 {
			t.Errorf("warnings = %d, want the tax id checksum warning", res.WarningCount)
		}

		rejected := &models.InvoiceDocument{CompanyCode: "42", Year: 2025, AccountingDate: "2024-12-31"}
		if _, err := SaveInvoiceDocument(ctx, s, rejected); !errors.Is(err, types.ErrInvalidDocument) {
			t.Errorf("out-of-year err = %v", err)
		}
		if rejected.Number != "" {
			t.Errorf("rejected document got number %q", rejected.Number)
		}

		rect := &models.InvoiceDocument{CompanyCode: "42", Year: 2025, AccountingDate: "2025-03-01", Rectifying: true}
		if _, err := SaveInvoiceDocument(ctx, s, rect); err != nil {
			t.Fatalf("rectifying: %v", err)
		}
		if rect.Serie != "R" || rect.Number != "1" {
			t.Errorf("rectifying allocated %s%s", rect.Serie, rect.Number)
		}

		next := &models.InvoiceDocument{CompanyCode: "42", Year: 2025, AccountingDate: "2025-03-02"}
		if _, err := SaveInvoiceDocument(ctx, s, next); err != nil || next.Number != "2" {
			t.Errorf("next number = %q, %v", next.Number, err)
		}

		missing := &models.InvoiceDocument{CompanyCode: "77", Year: 2025, Number: "1", AccountingDate: "2025-03-02"}
		if _, err := SaveInvoiceDocument(ctx, s, missing); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("unknown company err = %v", err)
		}
	})
}
