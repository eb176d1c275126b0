package codec

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Substitute is written for characters latin-1 cannot represent.
const Substitute = '?'

var typographic = map[rune]byte{
	'‘': '\'', '’': '\'', '‚': '\'', '“': '"', '”': '"', '„': '"',
	'–': '-', '—': '-', '‐': '-', '…': '.', '€': 'E', '•': '*',
	'\u2009': ' ', '\u202f': ' ',
}

// EncodeLatin1 converts s to ISO-8859-1 bytes. Characters outside latin-1
// are replaced by their unaccented base letter when one exists, a close
// ASCII look-alike for common punctuation, or Substitute. The second result
// reports whether any replacement happened.
func EncodeLatin1(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	substituted := false
	for _, r := range s {
		if r == utf8.RuneError {
			out = append(out, Substitute)
			substituted = true
			continue
		}
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		substituted = true
		out = append(out, fallback(r))
	}
	return out, substituted
}

func fallback(r rune) byte {
	if b, ok := typographic[r]; ok {
		return b
	}
	decomposed := norm.NFD.String(string(r))
	if base, _ := utf8.DecodeRuneInString(decomposed); base != r {
		if b, ok := charmap.ISO8859_1.EncodeRune(base); ok {
			return b
		}
	}
	return Substitute
}

// DecodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string.
func DecodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
