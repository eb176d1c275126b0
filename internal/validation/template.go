package validation

import (
	"strings"

	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
)

// Requirement is a semantic column requirement satisfied by any of its keys.
type Requirement []types.Key

func (r Requirement) String() string {
	parts := make([]string, len(r))
	for i, k := range r {
		parts[i] = string(k)
	}
	return strings.Join(parts, "|")
}

var requiredColumns = map[models.TemplateKind][]Requirement{
	models.KindBank: {
		types.DateKeys,
		{types.KeyConcepto, types.KeyDescripcion},
		{types.KeyImporte},
	},
	models.KindIssued: {
		{types.KeyNumero, types.KeyNumeroLargoSII},
		types.DateKeys,
		{types.KeyBase},
	},
	models.KindReceived: {
		{types.KeyNumero, types.KeyNumeroLargoSII},
		types.DateKeys,
		{types.KeyBase},
	},
}

// RequiredColumns lists the column requirements of a template kind.
func RequiredColumns(kind models.TemplateKind) []Requirement {
	return requiredColumns[kind]
}

// CheckMapping fails with ErrMappingMissing when a requirement has none of
// its keys mapped. The message enumerates every missing requirement.
func CheckMapping(kind models.TemplateKind, m models.Mapping) error {
	var missing []string
	for _, req := range requiredColumns[kind] {
		found := false
		for _, k := range req {
			if strings.TrimSpace(m.Columns[string(k)]) != "" {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req.String())
		}
	}
	if len(missing) > 0 {
		return types.NewError("validation.CheckMapping", types.ErrMappingMissing, strings.Join(missing, ", "))
	}
	return nil
}

// CheckTemplate fails with ErrTemplateIncomplete when the accounts the
// generator for kind needs are empty.
func CheckTemplate(kind models.TemplateKind, t *models.Template) error {
	var missing []string
	if strings.TrimSpace(t.SubaccountDefault) == "" {
		missing = append(missing, "subaccount_default")
	}
	if kind == models.KindBank && strings.TrimSpace(t.SubaccountBank) == "" {
		missing = append(missing, "subaccount_bank")
	}
	if len(missing) > 0 {
		return types.NewError("validation.CheckTemplate", types.ErrTemplateIncomplete,
			t.Name+": missing "+strings.Join(missing, ", "))
	}
	return nil
}
