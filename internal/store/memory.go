package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
)

// Memory keeps everything in maps. Values are copied in and out so callers
// never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	companies    map[string]models.Company
	templates    map[string]models.Template
	thirdParties map[string]models.ThirdParty
	links        []models.ThirdPartyCompany
	documents    map[string]models.InvoiceDocument
	nextID       uint
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		companies:    map[string]models.Company{},
		templates:    map[string]models.Template{},
		thirdParties: map[string]models.ThirdParty{},
		documents:    map[string]models.InvoiceDocument{},
	}
}

func companyKey(code string, year int) string { return fmt.Sprintf("%s/%d", code, year) }

func templateKey(t *models.Template) string {
	return fmt.Sprintf("%s/%d/%s/%s", t.CompanyCode, t.Year, t.Kind, t.Name)
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) Close() error { return nil }

func (m *Memory) GetCompany(_ context.Context, code string, year int) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[companyKey(code, year)]
	if !ok {
		return nil, notFound("store.GetCompany", "company %s/%d", code, year)
	}
	return &c, nil
}

func (m *Memory) ListCompanies(_ context.Context) ([]models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

func (m *Memory) UpsertCompany(_ context.Context, c *models.Company) error {
	if err := checkCompany(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := companyKey(c.Code, c.Year)
	now := time.Now()
	if prev, ok := m.companies[key]; ok {
		c.ID, c.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		c.ID, c.CreatedAt = m.id(), now
	}
	c.UpdatedAt = now
	m.companies[key] = *c
	return nil
}

func (m *Memory) DeleteCompany(_ context.Context, code string, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := companyKey(code, year)
	if _, ok := m.companies[key]; !ok {
		return notFound("store.DeleteCompany", "company %s/%d", code, year)
	}
	delete(m.companies, key)
	for k, t := range m.templates {
		if t.CompanyCode == code && t.Year == year {
			delete(m.templates, k)
		}
	}
	m.links = slices.DeleteFunc(m.links, func(l models.ThirdPartyCompany) bool {
		return l.CompanyCode == code && l.Year == year
	})
	for id, d := range m.documents {
		if d.CompanyCode == code && d.Year == year {
			delete(m.documents, id)
		}
	}
	return nil
}

func (m *Memory) ListTemplates(_ context.Context, kind models.TemplateKind, code string, year int) ([]models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Template
	for _, t := range m.templates {
		if t.Kind == kind && t.CompanyCode == code && t.Year == year {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpsertTemplate(_ context.Context, t *models.Template) error {
	if err := checkTemplate(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := templateKey(t)
	if prev, ok := m.templates[key]; ok {
		t.ID, t.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		t.ID, t.CreatedAt = m.id(), time.Now()
	}
	t.UpdatedAt = time.Now()
	m.templates[key] = *t
	return nil
}

func (m *Memory) ListThirdParties(_ context.Context) ([]models.ThirdParty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ThirdParty, 0, len(m.thirdParties))
	for _, tp := range m.thirdParties {
		out = append(out, tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpsertThirdParty(_ context.Context, tp *models.ThirdParty) error {
	if err := prepareThirdParty(tp); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.thirdParties {
		if other.TaxID == tp.TaxID && other.ID != tp.ID {
			return types.NewError("store.UpsertThirdParty", types.ErrDuplicateTaxID,
				fmt.Sprintf("%s already belongs to %s", tp.TaxID, other.Name))
		}
	}
	if prev, ok := m.thirdParties[tp.ID]; ok {
		tp.CreatedAt = prev.CreatedAt
	} else {
		tp.CreatedAt = time.Now()
	}
	tp.UpdatedAt = time.Now()
	m.thirdParties[tp.ID] = *tp
	return nil
}

func (m *Memory) ListThirdPartiesForCompany(_ context.Context, code string, year int) ([]models.ThirdPartyCompany, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ThirdPartyCompany
	for _, l := range m.links {
		if l.CompanyCode == code && l.Year == year {
			out = append(out, m.withThirdParty(l))
		}
	}
	return out, nil
}

func (m *Memory) withThirdParty(l models.ThirdPartyCompany) models.ThirdPartyCompany {
	if tp, ok := m.thirdParties[l.ThirdPartyID]; ok {
		l.ThirdParty = &tp
	}
	return l
}

func (m *Memory) GetThirdPartyCompany(_ context.Context, code, taxIDOrID string, year int) (*models.ThirdPartyCompany, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	normalized := validation.NormalizeTaxID(taxIDOrID)
	id := ""
	for _, tp := range m.thirdParties {
		if tp.ID == taxIDOrID || tp.TaxID == normalized {
			id = tp.ID
			break
		}
	}
	if id == "" {
		return nil, notFound("store.GetThirdPartyCompany", "third party %s", taxIDOrID)
	}
	for _, l := range m.links {
		if l.CompanyCode == code && l.Year == year && l.ThirdPartyID == id {
			out := m.withThirdParty(l)
			return &out, nil
		}
	}
	return nil, notFound("store.GetThirdPartyCompany", "%s not linked to %s/%d", taxIDOrID, code, year)
}

func (m *Memory) LinkThirdParty(_ context.Context, link *models.ThirdPartyCompany) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.thirdParties[link.ThirdPartyID]; !ok {
		return notFound("store.LinkThirdParty", "third party %s", link.ThirdPartyID)
	}
	var scoped []models.ThirdPartyCompany
	for _, l := range m.links {
		if l.CompanyCode == link.CompanyCode && l.Year == link.Year {
			scoped = append(scoped, l)
		}
	}
	if err := checkLinkUniqueness(link, scoped); err != nil {
		return err
	}

	stored := *link
	stored.ThirdParty = nil
	stored.UpdatedAt = time.Now()
	for i, l := range m.links {
		if l.CompanyCode == link.CompanyCode && l.Year == link.Year && l.ThirdPartyID == link.ThirdPartyID {
			stored.ID, stored.CreatedAt = l.ID, l.CreatedAt
			m.links[i] = stored
			link.ID = stored.ID
			return nil
		}
	}
	stored.ID, stored.CreatedAt = m.id(), time.Now()
	m.links = append(m.links, stored)
	link.ID = stored.ID
	return nil
}

func (m *Memory) UpsertInvoiceDocument(_ context.Context, doc *models.InvoiceDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *models.InvoiceDocument
	if prev, ok := m.documents[doc.ID]; ok && doc.ID != "" {
		existing = &prev
	}
	if err := prepareDocument(doc, existing); err != nil {
		return err
	}
	if existing == nil {
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = time.Now()
	stored := *doc
	stored.Lines = slices.Clone(doc.Lines)
	m.documents[doc.ID] = stored
	return nil
}

func (m *Memory) ListInvoiceDocuments(_ context.Context, q DocumentQuery) ([]models.InvoiceDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InvoiceDocument
	for _, d := range m.documents {
		if q.match(&d) {
			d.Lines = slices.Clone(d.Lines)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AccountingDate != b.AccountingDate {
			return a.AccountingDate < b.AccountingDate
		}
		if a.Serie != b.Serie {
			return a.Serie < b.Serie
		}
		return strings.Compare(a.Number, b.Number) < 0
	})
	return out, nil
}

func (m *Memory) MarkInvoicesGenerated(_ context.Context, code string, ids []string, ts time.Time, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		d, ok := m.documents[id]
		if !ok || d.CompanyCode != code || d.Year != year {
			continue
		}
		d.MarkGenerated(ts)
		m.documents[id] = d
		n++
	}
	return n, nil
}

func (m *Memory) NextInvoiceNumber(_ context.Context, code string, year int, rectifying bool) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := companyKey(code, year)
	c, ok := m.companies[key]
	if !ok {
		return "", "", notFound("store.NextInvoiceNumber", "company %s/%d", code, year)
	}
	serie, number := allocate(&c, rectifying)
	m.companies[key] = c
	return serie, number, nil
}

func (m *Memory) IsEmpty(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.companies) == 0 && len(m.templates) == 0 && len(m.thirdParties) == 0 &&
		len(m.links) == 0 && len(m.documents) == 0, nil
}
