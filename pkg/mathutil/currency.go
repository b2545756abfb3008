// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// StripNumeric drops every character that is not a digit or a decimal point,
// so "$1,000.50" becomes "1000.50".
func StripNumeric(val string) string {
	var b strings.Builder
	b.Grow(len(val))
	for _, r := range val {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// numericPrefix keeps the leading digits and at most one decimal point of an
// already stripped value. "1.2.3" yields "1.2".
func numericPrefix(stripped string) string {
	if i := strings.IndexByte(stripped, '.'); i >= 0 {
		if j := strings.IndexByte(stripped[i+1:], '.'); j >= 0 {
			stripped = stripped[:i+1+j]
		}
	}
	stripped = strings.TrimSuffix(stripped, ".")
	if strings.HasPrefix(stripped, ".") {
		stripped = "0" + stripped
	}
	return stripped
}

// ParseDecimal normalizes a user-entered amount and parses it. Anything that
// does not yield a number is treated as zero.
func ParseDecimal(val string) decimal.Decimal {
	num := numericPrefix(StripNumeric(val))
	if num == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	currencyReplacer = strings.NewReplacer(",", "", "$", "")
	plainAmount      = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)
)

// ParseCurrency parses an entered amount strictly. Thousands separators and a
// dollar sign are allowed; exponents, letters and stray symbols are errors.
func ParseCurrency(val string) (decimal.Decimal, error) {
	num := currencyReplacer.Replace(strings.TrimSpace(val))
	if !plainAmount.MatchString(num) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", val)
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(num, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", val, err)
	}
	return d, nil
}

// ParseAmount is ParseDecimal for callers working in float64.
func ParseAmount(val string) float64 {
	return ParseDecimal(val).InexactFloat64()
}

// MinDecimal returns the smaller of two decimals.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// SumDecimal adds up any number of decimals.
func SumDecimal(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}
