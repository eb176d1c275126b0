package records

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

var testCtx = Context{CompanyCode: "42", Ndig: 8}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRenderBankLayout(t *testing.T) {
	rec := Bank(1, BankLine{
		Date:        "20250315",
		Account:     "57200001",
		Side:        Debit,
		Amount:      dec("1234.56"),
		Description: "NOMINA MARZO",
		Marker:      Initial,
	})

	line, subst := rec.Render(testCtx)
	if subst {
		t.Error("unexpected substitution")
	}
	if err := Check(line); err != nil {
		t.Fatalf("Check() = %v", err)
	}

	fields := []struct {
		name     string
		from, to int
		want     string
	}{
		{"company", 2, 6, "00042"},
		{"date", 7, 14, "20250315"},
		{"kind", 15, 15, "0"},
		{"account", 16, 27, "572000010000"},
		{"account description", 28, 57, strings.Repeat(" ", 30)},
		{"side", 58, 58, "D"},
		{"reference", 59, 68, strings.Repeat(" ", 10)},
		{"marker", 69, 69, "I"},
		{"description", 70, 99, "NOMINA MARZO" + strings.Repeat(" ", 18)},
		{"amount", 100, 113, "+0000001234.56"},
		{"reserved", 114, 508, strings.Repeat(" ", 395)},
	}
	for _, f := range fields {
		if got := Field(line, f.from, f.to); got != f.want {
			t.Errorf("%s = %q, want %q", f.name, got, f.want)
		}
	}
}

func TestRenderBankSubstitution(t *testing.T) {
	rec := Bank(3, BankLine{Date: "20250101", Account: "572", Side: Credit, Amount: dec("1"), Description: "Pago 10€ Łódź", Marker: Unique})
	line, subst := rec.Render(testCtx)
	if !subst {
		t.Error("expected substitution to be reported")
	}
	if err := Check(line); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(Field(line, 70, 99)); got != "Pago 10E ?\xf3dz" {
		t.Errorf("description = %q", got)
	}
}

func TestRenderInvoiceRecords(t *testing.T) {
	details := []InvoiceDetail{
		{Book: Sales, Identity: "A|1", Date: "20250110", Account: "70000000", Reference: "A1", Base: dec("100"), PctVAT: dec("21"), CuotaVAT: dec("21"), VATAccount: "47700021"},
		{Book: Sales, Identity: "A|1", Date: "20250110", Account: "70000000", Reference: "A1", Base: dec("50"), PctVAT: dec("10"), CuotaVAT: dec("5"), VATAccount: "47700010", Last: true},
	}
	total := Total(details)
	if !total.Equal(dec("176")) {
		t.Fatalf("Total = %s, want 176", total)
	}

	header := Header(1, InvoiceHeader{
		Book: Sales, Identity: "A|1", Date: "20250110", Account: "43012345", Name: "Cliente SL",
		TaxID: "B12345678", Reference: "A1", OperationDate: "20250110", IssueDate: "20250109", Total: total,
	})
	line, _ := header.Render(testCtx)
	if err := Check(line); err != nil {
		t.Fatal(err)
	}
	checks := map[[2]int]string{
		{15, 15}:   "1",
		{16, 27}:   "430123450000",
		{69, 69}:   "I",
		{100, 113}: "+0000000176.00",
		{176, 189}: "B12345678     ",
		{237, 244}: "20250110",
		{245, 252}: "20250109",
	}
	for pos, want := range checks {
		if got := Field(line, pos[0], pos[1]); got != want {
			t.Errorf("header[%d-%d] = %q, want %q", pos[0], pos[1], got, want)
		}
	}
	if got := strings.TrimSpace(Field(line, 253, 312)); got != "A1" {
		t.Errorf("long SII fallback = %q", got)
	}

	for i, d := range details {
		line, _ := Detail(i+1, d).Render(testCtx)
		if err := Check(line); err != nil {
			t.Fatal(err)
		}
		if Field(line, 15, 15) != "9" {
			t.Errorf("detail %d kind = %q", i, Field(line, 15, 15))
		}
		wantMarker := "M"
		if d.Last {
			wantMarker = "U"
		}
		if got := Field(line, 69, 69); got != wantMarker {
			t.Errorf("detail %d marker = %q, want %q", i, got, wantMarker)
		}
		if got := Field(line, 116, 120); got != d.PctVAT.StringFixed(2) {
			t.Errorf("detail %d VAT%% = %q", i, got)
		}
		if got := Field(line, 176, 187); got != d.VATAccount+"0000" {
			t.Errorf("detail %d VAT account = %q", i, got)
		}
		if got := Field(line, 188, 199); got != strings.Repeat(" ", 12) {
			t.Errorf("detail %d RE account should be blank, got %q", i, got)
		}
	}
}

func TestPurchaseDetailSide(t *testing.T) {
	line, _ := Detail(1, InvoiceDetail{Book: Purchases, Date: "20250110", Account: "60000000", Base: dec("-10"), Last: true}).Render(testCtx)
	if Field(line, 58, 58) != "A" {
		t.Errorf("purchase detail side = %q", Field(line, 58, 58))
	}
	if Field(line, 102, 115) != "-0000000010.00" {
		t.Errorf("negative base = %q", Field(line, 102, 115))
	}
}
