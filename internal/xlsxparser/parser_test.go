package xlsxparser

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/xuri/excelize/v2"
)

func init() {
	logger.Silence()
}

// writeWorkbook saves a workbook with one sheet filled from cells.
func writeWorkbook(t *testing.T, sheet string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatal(err)
		}
	}
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"A", 0, false},
		{"Z", 25, false},
		{"AA", 26, false},
		{"az", 51, false},
		{" c ", 2, false},
		{"", 0, true},
		{"A1", 0, true},
		{"Ñ", 0, true},
		{"ZZZZ", 0, true},
	}
	for _, tt := range tests {
		got, err := ColumnIndex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ColumnIndex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompileRejectsMalformedMapping(t *testing.T) {
	_, err := Compile(models.Mapping{Columns: map[string]string{"Importe": "D4"}, IgnoreCond: "F"})
	if !errors.Is(err, types.ErrMappingMissing) {
		t.Fatalf("err = %v", err)
	}
}

func TestExtract(t *testing.T) {
	path := writeWorkbook(t, "Banco", map[string]any{
		"A1": "Fecha", "B1": "Concepto", "D1": "Importe", "F1": "Estado", "G1": "Generica",
		"A2": time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "B2": "NOMINA MARZO", "D2": 1234.56,
		"A3": "16/03/2025", "B3": "ANULADO", "D3": 5, "F3": "ANULADA",
		"A5": "20250317", "B5": "Recibo", "D5": "-12,00", "G5": "X",
	})
	m := models.Mapping{
		FirstRow:           2,
		IgnoreCond:         "F=ANULADA",
		GenericAccountCond: "G=X",
		Columns:            map[string]string{"Fecha": "A", "Concepto": "B", "Importe": "D", "Referencia": "Z"},
	}

	rows, err := Extract(path, "", m)
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.Number != 1 || first.SourceLine != 2 {
		t.Errorf("first row number/line = %d/%d", first.Number, first.SourceLine)
	}
	if got := first.Get(types.KeyFecha); got != "2025-03-15" {
		t.Errorf("serial date = %q", got)
	}
	if got := first.Get(types.KeyImporte); got != "1234.56" {
		t.Errorf("raw amount = %q", got)
	}
	if first.UseGenericAccount {
		t.Error("first row flagged generic")
	}
	if v, ok := first.Annotations["Referencia"]; !ok || v != "" {
		t.Errorf("short row annotation = %q, %v", v, ok)
	}

	second := rows[1]
	if second.Number != 2 || second.SourceLine != 5 {
		t.Errorf("second row number/line = %d/%d", second.Number, second.SourceLine)
	}
	if got := second.Get(types.KeyFecha); got != "20250317" {
		t.Errorf("compact date rewritten: %q", got)
	}
	if !second.UseGenericAccount {
		t.Error("generic_account_cond not applied")
	}
}

func TestExtractMissingColumnKeepsKey(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", map[string]any{"A1": "2025-01-01", "B1": "x"})
	rows, err := Extract(path, "Sheet1", models.Mapping{
		FirstRow: 1,
		Columns:  map[string]string{"Fecha": "A", "Concepto": "B", "Importe": "K"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if !rows[0].Has(types.KeyImporte) || rows[0].Get(types.KeyImporte) != "" {
		t.Errorf("Importe = %q, has %v", rows[0].Get(types.KeyImporte), rows[0].Has(types.KeyImporte))
	}
}

func TestExtractErrors(t *testing.T) {
	path := writeWorkbook(t, "Datos", map[string]any{"A1": "x"})
	m := models.Mapping{Columns: map[string]string{"Fecha": "A"}}

	if _, err := Extract(path, "Otra", m); !errors.Is(err, types.ErrMappingMissing) {
		t.Errorf("unknown sheet err = %v", err)
	}
	if _, err := Extract(filepath.Join(t.TempDir(), "missing.xlsx"), "", m); !errors.Is(err, types.ErrIO) {
		t.Errorf("missing file err = %v", err)
	}

	names, err := SheetNames(path)
	if err != nil || len(names) != 1 || names[0] != "Datos" {
		t.Errorf("SheetNames() = %v, %v", names, err)
	}
}

func TestSerialDate(t *testing.T) {
	tests := map[string]string{
		"45731":      "2025-03-15",
		"45731.5":    "2025-03-15",
		"20250315":   "20250315",
		"15/03/2025": "15/03/2025",
		"0":          "0",
		"":           "",
	}
	for in, want := range tests {
		if got := serialDate(in); got != want {
			t.Errorf("serialDate(%q) = %q, want %q", in, got, want)
		}
	}
}
