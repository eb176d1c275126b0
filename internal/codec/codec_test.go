package codec

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEmpresa5(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"42", "00042"},
		{"E-00042", "00042"},
		{"", "00000"},
		{"12345", "12345"},
		{"123456", "12345"},
	}
	for _, tt := range tests {
		if got := Empresa5(tt.in); got != tt.want {
			t.Errorf("Empresa5(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate8(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"20250315", "20250315", true},
		{"2025-03-15", "20250315", true},
		{"2025/03/15", "20250315", true},
		{"15/03/2025", "20250315", true},
		{"15-03-2025", "20250315", true},
		{"5/3/2025", "20250305", true},
		{"2025-03-15 00:00:00", "20250315", true},
		{"15032025", "20250315", true},
		{"nope", InvalidDate8, false},
		{"", InvalidDate8, false},
		{"2025-02-30", InvalidDate8, false},
		{"32/01/2025", InvalidDate8, false},
	}
	for _, tt := range tests {
		got, ok := Date8(tt.in)
		if got != tt.want || ok != tt.valid {
			t.Errorf("Date8(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.valid)
		}
	}
}

func TestAccount12(t *testing.T) {
	tests := []struct {
		raw  string
		ndig int
		want string
	}{
		{"57200001", 8, "572000010000"},
		{"572", 8, "572000000000"},
		{"4300000012345", 8, "430000000000"},
		{"430.0001", 8, "430000100000"},
		{"", 8, "000000000000"},
		{"57200001", 12, "572000010000"},
		{"5720", 4, "572000000000"},
	}
	for _, tt := range tests {
		got := Account12(tt.raw, tt.ndig)
		if got != tt.want {
			t.Errorf("Account12(%q, %d) = %q, want %q", tt.raw, tt.ndig, got, tt.want)
		}
		if len(got) != AccountWidth {
			t.Errorf("Account12(%q) width = %d", tt.raw, len(got))
		}
	}
}

func TestAccount12PrefixLaw(t *testing.T) {
	for _, raw := range []string{"1", "4300001", "62900000", "629000001234"} {
		for ndig := 4; ndig <= 12; ndig++ {
			got := Account12(raw, ndig)
			if got[:ndig] != FitAccount(raw, ndig) {
				t.Errorf("Account12(%q, %d) prefix %q != %q", raw, ndig, got[:ndig], FitAccount(raw, ndig))
			}
			if Digits(got) != got {
				t.Errorf("Account12(%q, %d) = %q is not all digits", raw, ndig, got)
			}
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"-12,00", "-12"},
		{"10", "10"},
		{"1234.56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567", "1234567"},
		{"(45,10)", "-45.1"},
		{"45,10-", "-45.1"},
		{"12,50 €", "12.5"},
		{"", "0"},
		{"NaN", "0"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseAmount("abc"); err == nil {
		t.Error("ParseAmount(abc) expected error")
	}
}

func TestAmount14(t *testing.T) {
	re := regexp.MustCompile(`^\+\d{10}\.\d{2}$`)
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "+0000001234.56"},
		{"-12", "+0000000012.00"},
		{"0.005", "+0000000000.01"},
		{"0.004", "+0000000000.00"},
		{"12345678901.25", "+2345678901.25"},
	}
	for _, tt := range tests {
		got := Amount14(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("Amount14(%s) = %q, want %q", tt.in, got, tt.want)
		}
		if !re.MatchString(got) {
			t.Errorf("Amount14(%s) = %q does not match layout", tt.in, got)
		}
	}
}

func TestSignedAmount14(t *testing.T) {
	if got := SignedAmount14(decimal.RequireFromString("-166")); got != "-0000000166.00" {
		t.Errorf("SignedAmount14(-166) = %q", got)
	}
	if got := SignedAmount14(decimal.RequireFromString("166")); got != "+0000000166.00" {
		t.Errorf("SignedAmount14(166) = %q", got)
	}
}

func TestPct5(t *testing.T) {
	tests := map[string]string{"21": "21.00", "5.2": "05.20", "0": "00.00", "10.5": "10.50"}
	for in, want := range tests {
		if got := Pct5(decimal.RequireFromString(in)); got != want {
			t.Errorf("Pct5(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestTextAndPut(t *testing.T) {
	if got := Text("NOMINA MARZO", 5); got != "NOMIN" {
		t.Errorf("Text truncate = %q", got)
	}
	if got := Text("ab", 4); got != "ab  " {
		t.Errorf("Text pad = %q", got)
	}
	if got := Text("ñandú", 3); got != "ñan" {
		t.Errorf("Text counts characters, got %q", got)
	}

	buf := []byte("..........")
	if Put(buf, 2, 6, "año") {
		t.Error("Put(año) reported a substitution")
	}
	want := []byte{'.', '.', 'a', 0xF1, 'o', ' ', '.', '.', '.', '.'}
	if string(buf) != string(want) {
		t.Errorf("Put = %q, want %q", buf, want)
	}
}

func TestEncodeLatin1(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		subst bool
	}{
		{"PAGO", "PAGO", false},
		{"Ñu", "\xd1u", false},
		{"Łódź", "?\xf3dz", true},
		{"10€", "10E", true},
		{"漢", "?", true},
	}
	for _, tt := range tests {
		got, subst := EncodeLatin1(tt.in)
		if string(got) != tt.want || subst != tt.subst {
			t.Errorf("EncodeLatin1(%q) = (%q, %v), want (%q, %v)", tt.in, got, subst, tt.want, tt.subst)
		}
	}
}
