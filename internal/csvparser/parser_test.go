package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
)

func init() {
	logger.Silence()
}

var bankMapping = models.Mapping{
	FirstRow:   2,
	IgnoreCond: "D=ANULADO",
	Columns:    map[string]string{"Fecha": "A", "Concepto": "B", "Importe": "C"},
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movimientos.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractSemicolonUTF8(t *testing.T) {
	data := "\xEF\xBB\xBFFecha;Concepto;Importe;Estado\n" +
		"15/03/2025;NÓMINA MARZO;1.234,56;\n" +
		";;;\n" +
		"16/03/2025;Devuelto;10,00;ANULADO\n" +
		"17/03/2025;\"Comisión; mantenimiento\";-12,00;\n"

	rows, err := Extract(writeFile(t, []byte(data)), bankMapping, Settings{})
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if got := rows[0].Get(types.KeyConcepto); got != "NÓMINA MARZO" {
		t.Errorf("concept = %q", got)
	}
	if got := rows[0].Get(types.KeyImporte); got != "1.234,56" {
		t.Errorf("amount = %q", got)
	}
	if rows[1].SourceLine != 5 || rows[1].Number != 2 {
		t.Errorf("second row line/number = %d/%d", rows[1].SourceLine, rows[1].Number)
	}
	if got := rows[1].Get(types.KeyConcepto); got != "Comisión; mantenimiento" {
		t.Errorf("quoted concept = %q", got)
	}
}

func TestExtractLatin1(t *testing.T) {
	data := []byte("Fecha,Concepto,Importe\n2025-03-15,Cami\xf3n,10\n")
	rows, err := Extract(writeFile(t, data), bankMapping, Settings{Delimiter: "comma"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Get(types.KeyConcepto) != "Camión" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := map[string]rune{
		"\n\na;b;c": ';',
		"a,b,c":     ',',
		"a\tb\tc":   '\t',
		"a|b|c":     '|',
		"a;b,c":     ';',
		"solo una":  ';',
	}
	for in, want := range tests {
		if got := detectDelimiter(in); got != want {
			t.Errorf("detectDelimiter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractErrors(t *testing.T) {
	if _, err := Extract(filepath.Join(t.TempDir(), "none.csv"), bankMapping, Settings{}); !errors.Is(err, types.ErrIO) {
		t.Errorf("missing file err = %v", err)
	}
	bad := models.Mapping{Columns: map[string]string{"Importe": "3"}}
	if _, err := Extract(writeFile(t, []byte("a;b\n")), bad, Settings{}); !errors.Is(err, types.ErrMappingMissing) {
		t.Errorf("bad mapping err = %v", err)
	}
}
