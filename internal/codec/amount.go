package codec

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary value written with either ',' or '.' as the
// decimal separator, including Spanish thousands ("1.234,56"), a leading or
// trailing minus, parentheses for negatives and a currency suffix. Empty
// cells and NaN parse as zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("€", "", "EUR", "", "eur", "", " ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The right-most separator is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		v = v.Neg()
	}
	return v, nil
}

// ParsePercent parses a percentage cell ("21", "21,00", "21%") rounded to two decimals.
func ParsePercent(raw string) (decimal.Decimal, error) {
	v, err := ParseAmount(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if err != nil {
		return decimal.Zero, err
	}
	return Round2(v), nil
}

// Round2 rounds monetary values and percentages half away from zero.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Round4 rounds unit prices half away from zero.
func Round4(v decimal.Decimal) decimal.Decimal {
	return v.Round(4)
}

// EqualPct compares two percentages at two decimals.
func EqualPct(a, b decimal.Decimal) bool {
	return Round2(a).Equal(Round2(b))
}
