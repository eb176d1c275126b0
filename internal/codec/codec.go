// =============================================================================
// Suenlace Generator - Field Codec
// =============================================================================
//
// Justify, pad and truncate primitive values into the fixed widths used by
// posting-file records. Every function here returns exactly the documented
// width so record builders never need to re-check lengths.
//
// =============================================================================

package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// InvalidDate8 is the placeholder written when a date cannot be parsed.
const InvalidDate8 = "00000000"

// AccountWidth is the width of every account field.
const AccountWidth = 12

// AmountWidth is the width of every amount field.
const AmountWidth = 14

var amountModulus = decimal.New(1, 10)

// Digits keeps only the ASCII decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Empresa5 renders a company code as five digits.
func Empresa5(code string) string {
	n, _ := strconv.ParseUint(strings.TrimLeft(Digits(code), "0"), 10, 64)
	s := fmt.Sprintf("%05d", n)
	return s[:5]
}

// Date8 normalizes a date to YYYYMMDD. Accepted layouts are YYYYMMDD,
// YYYY-MM-DD, YYYY/MM/DD, DD/MM/YYYY and DD-MM-YYYY, optionally followed by a
// time part. The second result is false when the value could not be parsed,
// in which case InvalidDate8 is returned.
func Date8(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " T"); i > 0 && strings.Contains(s[i:], ":") {
		s = s[:i]
	}
	if s == "" {
		return InvalidDate8, false
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})

	var y, m, d string
	switch {
	case len(parts) == 1 && len(s) == 8 && Digits(s) == s:
		// Compact form: YYYYMMDD first, DDMMYYYY as a fallback.
		if v, ok := validDate(s[:4], s[4:6], s[6:]); ok {
			return v, true
		}
		y, m, d = s[4:], s[2:4], s[:2]
	case len(parts) == 3 && len(parts[0]) == 4:
		y, m, d = parts[0], parts[1], parts[2]
	case len(parts) == 3 && len(parts[2]) == 4:
		y, m, d = parts[2], parts[1], parts[0]
	default:
		return InvalidDate8, false
	}

	if v, ok := validDate(y, m, d); ok {
		return v, true
	}
	return InvalidDate8, false
}

func validDate(y, m, d string) (string, bool) {
	if len(y) != 4 || len(m) == 0 || len(m) > 2 || len(d) == 0 || len(d) > 2 {
		return "", false
	}
	if Digits(y+m+d) != y+m+d {
		return "", false
	}
	v := y + leftPad(m, 2, '0') + leftPad(d, 2, '0')
	if _, err := time.Parse("20060102", v); err != nil {
		return "", false
	}
	return v, true
}

// Account12 keeps the digits of raw, fits them to ndig (truncating on the
// left-most ndig digits or right-padding with zeros) and then right-pads
// with zeros to twelve.
func Account12(raw string, ndig int) string {
	if ndig <= 0 || ndig > AccountWidth {
		ndig = AccountWidth
	}
	d := Digits(raw)
	if len(d) > ndig {
		d = d[:ndig]
	}
	d = rightPad(d, ndig, '0')
	return rightPad(d, AccountWidth, '0')
}

// FitAccount returns the ndig-wide form of a subaccount, the prefix of Account12.
func FitAccount(raw string, ndig int) string {
	if ndig <= 0 || ndig > AccountWidth {
		ndig = AccountWidth
	}
	return Account12(raw, ndig)[:ndig]
}

// Amount14 renders the absolute value of v as "+NNNNNNNNNN.DD". Integer parts
// wider than ten digits keep their low ten digits.
func Amount14(v decimal.Decimal) string {
	return formatAmount('+', v.Abs())
}

// SignedAmount14 is Amount14 with '-' in the sign slot for negative values.
func SignedAmount14(v decimal.Decimal) string {
	sign := byte('+')
	if v.Round(2).IsNegative() {
		sign = '-'
	}
	return formatAmount(sign, v.Abs())
}

func formatAmount(sign byte, v decimal.Decimal) string {
	v = v.Round(2).Mod(amountModulus)
	cents := v.Shift(2).IntPart()
	return fmt.Sprintf("%c%010d.%02d", sign, cents/100, cents%100)
}

// AmountString parses raw tolerantly and renders it with Amount14.
func AmountString(raw string) (string, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return Amount14(decimal.Zero), err
	}
	return Amount14(v), nil
}

// Pct5 renders a percentage as "%05.2f" (e.g. "21.00", "05.20").
func Pct5(v decimal.Decimal) string {
	s := v.Abs().Round(2).StringFixed(2)
	s = leftPad(s, 5, '0')
	return s[:5]
}

// Text truncates s to n characters and right-pads it with spaces.
func Text(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) > n {
		r := []rune(s)
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-utf8.RuneCountInString(s))
}

// Put writes Text(value, end-start) into buf[start:end] as latin-1 and
// reports whether any character needed a substitute.
func Put(buf []byte, start, end int, value string) bool {
	if start < 0 || end > len(buf) || start >= end {
		return false
	}
	encoded, substituted := EncodeLatin1(Text(value, end-start))
	n := copy(buf[start:end], encoded)
	for i := start + n; i < end; i++ {
		buf[i] = ' '
	}
	return substituted
}

func leftPad(s string, n int, c byte) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(string(c), n-len(s)) + s
}

func rightPad(s string, n int, c byte) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(string(c), n-len(s))
}
