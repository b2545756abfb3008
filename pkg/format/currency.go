// Package format renders amounts the way the servicing screens display them.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Mode selects how StringToCurrencyOrPercent renders its input.
type Mode int

const (
	// ModeCurrency renders USD with two decimals.
	ModeCurrency Mode = iota
	// ModePercent renders the value divided by 100 as a percentage with four decimals.
	ModePercent
)

// ParseMode maps "currency"/"percent" (or "0"/"1") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "currency", "usd":
		return ModeCurrency, nil
	case "1", "percent", "pct":
		return ModePercent, nil
	default:
		return ModeCurrency, fmt.Errorf("unknown format mode %q", s)
	}
}

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := groupDigits(math.Abs(amount), constants.CurrencyPlaces)
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// CurrencyDecimal is Currency for decimal amounts, rounded half away from zero to cents.
func CurrencyDecimal(amount decimal.Decimal) string {
	return Currency(amount.Round(constants.CurrencyPlaces).InexactFloat64())
}

// Percent renders a ratio (0.125) as "12.5000%".
func Percent(ratio float64) string {
	pct := ratio * constants.PercentageMultiplier
	formatted := groupDigits(math.Abs(pct), constants.PercentPlaces)
	if pct < 0 && strings.Trim(formatted, "0.,") != "" {
		return "-" + formatted + "%"
	}
	return formatted + "%"
}

// StringToCurrencyOrPercent cleans a user-entered value down to digits and a
// decimal point and renders it as currency, or as a percentage of value/100.
// An empty input stays empty.
func StringToCurrencyOrPercent(val string, mode Mode) string {
	if val == "" {
		return ""
	}
	amount := mathutil.ParseAmount(val)
	if mode == ModePercent {
		return Percent(amount / constants.PercentageMultiplier)
	}
	return Currency(amount)
}

func groupDigits(value float64, places int) string {
	formatted := fmt.Sprintf("%.*f", places, value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if decPart == "" {
		return intPart
	}
	return intPart + "." + decPart
}
