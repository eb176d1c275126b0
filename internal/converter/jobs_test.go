package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/suenlace/internal/models"
)

func TestRunAll(t *testing.T) {
	s := newStore(t, bankTemplate(), issuedTemplate())
	conv, dir := newConverter(t, s, nil)

	bankIn := writeWorkbook(t, [][]any{
		{"Fecha", "Concepto", "Importe"},
		{"2025-03-15", "Transferencia", "200,50"},
	})
	issuedIn := filepath.Join(dir, "ventas.csv")
	csv := "Factura;Fecha;NIF;Cliente;Base;IVA;Cuota\n7;2025-03-15;B12345674;Cliente SL;100,00;21;21,00\n"
	if err := os.WriteFile(issuedIn, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	reqs := []Request{
		{Kind: models.KindBank, CompanyCode: "42", Year: 2025, InputPath: bankIn},
		{Kind: models.KindIssued, CompanyCode: "42", Year: 2025, InputPath: issuedIn, OutputPath: filepath.Join(dir, "ventas.dat")},
		// Same default posting file as the first job.
		{Kind: models.KindIssued, CompanyCode: "42", Year: 2025, InputPath: issuedIn},
		{Kind: models.KindIssued, CompanyCode: "42", Year: 2025, FromDocuments: true},
		{Kind: models.KindBank, CompanyCode: "42", Year: 2025, InputPath: filepath.Join(dir, "missing.xlsx"), OutputPath: filepath.Join(dir, "x.dat")},
	}
	results := conv.RunAll(context.Background(), reqs, 2)
	if len(results) != len(reqs) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
	}

	if results[0].Err != nil || results[0].Result.Stats.Records != 2 {
		t.Errorf("bank job = %+v, %v", results[0].Result, results[0].Err)
	}
	if results[1].Err != nil || filepath.Base(results[1].Result.OutputFile) != "ventas.dat" {
		t.Errorf("issued job = %+v, %v", results[1].Result, results[1].Err)
	}
	if results[2].Err == nil || !strings.Contains(results[2].Err.Error(), "already written by job 1") {
		t.Errorf("duplicate output err = %v", results[2].Err)
	}
	if results[3].Err == nil || results[3].Result != nil {
		t.Errorf("documents job = %+v, %v", results[3].Result, results[3].Err)
	}
	if results[4].Err == nil {
		t.Error("missing input should fail")
	}
}

func TestRunAllCancelled(t *testing.T) {
	s := newStore(t, bankTemplate())
	conv, _ := newConverter(t, s, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := writeWorkbook(t, [][]any{{"Fecha", "Concepto", "Importe"}, {"2025-03-15", "X", "1"}})
	results := conv.RunAll(ctx, []Request{{Kind: models.KindBank, CompanyCode: "42", Year: 2025, InputPath: in}}, 0)
	// Either the worker saw the cancellation or the batch ran; it never hangs.
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
}
