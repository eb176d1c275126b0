package validation

import (
	"strings"
	"unicode"

	"github.com/ginjaninja78/suenlace/internal/types"
)

// TaxIDKind classifies a Spanish tax id.
type TaxIDKind string

const (
	TaxIDDNI     TaxIDKind = "DNI"
	TaxIDNIE     TaxIDKind = "NIE"
	TaxIDCIF     TaxIDKind = "CIF"
	TaxIDForeign TaxIDKind = "FOREIGN"
)

const (
	dniLetters    = "TRWAGMYFPDXBNJZSQVHLCKE"
	cifLetters    = "JABCDEFGHI"
	cifOrgs       = "ABCDEFGHJKLMNPQRSUVW"
	cifLetterOnly = "KLMNPQRSW"
	cifDigitOnly  = "ABEH"
)

// NormalizeTaxID uppercases s and drops whitespace and the usual separators.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsSpace(r) || r == '-' || r == '.' || r == '/' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateTaxID normalizes s and checks its control character. EU VAT ids
// with a country prefix other than ES are accepted without checksum.
func ValidateTaxID(s string) (string, TaxIDKind, error) {
	n := NormalizeTaxID(s)
	body := strings.TrimPrefix(n, "ES")

	if len(n) > 2 && isLetter(n[0]) && isLetter(n[1]) && !strings.HasPrefix(n, "ES") {
		return n, TaxIDForeign, nil
	}
	if len(body) != 9 {
		return n, "", types.NewError("validation.ValidateTaxID", types.ErrInvalidTaxID, "expected 9 characters in "+s)
	}

	switch {
	case isDigits(body[:8]):
		if body[8] == dniLetters[atoi(body[:8])%23] {
			return body, TaxIDDNI, nil
		}
	case strings.IndexByte("XYZ", body[0]) >= 0 && isDigits(body[1:8]):
		prefix := string(rune('0' + strings.IndexByte("XYZ", body[0])))
		if body[8] == dniLetters[atoi(prefix+body[1:8])%23] {
			return body, TaxIDNIE, nil
		}
	case strings.IndexByte(cifOrgs, body[0]) >= 0 && isDigits(body[1:8]):
		if cifControlOK(body) {
			return body, TaxIDCIF, nil
		}
	}
	return n, "", types.NewError("validation.ValidateTaxID", types.ErrInvalidTaxID, "bad control character in "+s)
}

func cifControlOK(body string) bool {
	sum := 0
	for i := 1; i <= 7; i++ {
		v := int(body[i] - '0')
		if i%2 == 1 {
			v *= 2
			v = v/10 + v%10
		}
		sum += v
	}
	digit := (10 - sum%10) % 10
	control := body[8]

	wantDigit := byte('0' + digit)
	wantLetter := cifLetters[digit]
	switch {
	case strings.IndexByte(cifLetterOnly, body[0]) >= 0:
		return control == wantLetter
	case strings.IndexByte(cifDigitOnly, body[0]) >= 0:
		return control == wantDigit
	default:
		return control == wantDigit || control == wantLetter
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
