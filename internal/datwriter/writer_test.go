package datwriter

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/suenlace/internal/records"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/shopspring/decimal"
)

var ctx = records.Context{CompanyCode: "42", Ndig: 8}

func bankPair(row int, desc string) []records.Record {
	amount := decimal.RequireFromString("10")
	return []records.Record{
		records.Bank(row, records.BankLine{Date: "20250315", Account: "57200001", Side: records.Debit, Amount: amount, Description: desc, Marker: records.Initial}),
		records.Bank(row, records.BankLine{Date: "20250315", Account: "62900000", Side: records.Credit, Amount: amount, Description: desc, Marker: records.Unique}),
	}
}

func TestGenerate(t *testing.T) {
	recs := append(bankPair(1, "NOMINA"), bankPair(2, "Recibo “luz”")...)
	res, err := Generate(recs, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 4*records.Size || res.Records != 4 {
		t.Fatalf("stream = %d bytes, %d records", len(res.Data), res.Records)
	}
	if res.Data[len(res.Data)-2] != '\r' || res.Data[len(res.Data)-1] != '\n' {
		t.Error("stream does not end with the last record's CR LF")
	}
	n, err := Verify(res.Data)
	if err != nil || n != 4 {
		t.Errorf("Verify() = %d, %v", n, err)
	}

	parts := Split(res.Data)
	if got := records.Field(parts[2], 70, 81); got != "Recibo \"luz\"" {
		t.Errorf("substituted description = %q", got)
	}
	if len(res.Advisories) != 1 || res.Advisories[0].Row != 2 {
		t.Errorf("advisories = %q", res.Advisories.Messages())
	}
}

func TestGenerateWithoutSubstitutionReport(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.ReportSubstitutions = false
	res, err := GenerateWithOptions(bankPair(1, "Señal €"), ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Advisories) != 0 {
		t.Errorf("advisories = %q", res.Advisories.Messages())
	}
}

func TestGenerateEmpty(t *testing.T) {
	if _, err := Generate(nil, ctx); !errors.Is(err, types.ErrNoRows) {
		t.Errorf("err = %v", err)
	}
}

func TestVerifyRejectsBrokenStreams(t *testing.T) {
	res, _ := Generate(bankPair(1, "x"), ctx)
	if _, err := Verify(res.Data[:len(res.Data)-1]); err == nil {
		t.Error("truncated stream accepted")
	}
	broken := append([]byte(nil), res.Data...)
	broken[records.Size] = '4'
	if n, err := Verify(broken); err == nil || n != 1 {
		t.Errorf("Verify(broken) = %d, %v", n, err)
	}
}
