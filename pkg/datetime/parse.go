// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/setaside/pkg/constants"
)

const (
	// InstallmentDateLayout is the MM/DD/YYYY format used for installment date values.
	InstallmentDateLayout = constants.InstallmentDateLayout

	// LabelDateLayout is the en-US short date format used for option labels.
	LabelDateLayout = constants.LabelDateLayout

	// ISODateLayout is the YYYY-MM-DD format used by the accrual lookups.
	ISODateLayout = constants.ISODateLayout
)

var flexibleLayouts = []string{
	time.RFC3339,
	ISODateLayout,
	InstallmentDateLayout,
	LabelDateLayout,
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseFlexible accepts RFC3339, YYYY-MM-DD, MM/DD/YYYY or M/D/YYYY.
func ParseFlexible(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// FormatInstallmentDate renders t as MM/DD/YYYY.
func FormatInstallmentDate(t time.Time) string {
	return t.Format(InstallmentDateLayout)
}

// FormatLabel renders t as an en-US short date, e.g. 1/5/2024.
func FormatLabel(t time.Time) string {
	return t.Format(LabelDateLayout)
}

// WithYear returns a copy of t with its calendar year replaced. Dates that do
// not exist in the target year roll forward (Feb 29 becomes Mar 1).
func WithYear(t time.Time, year int) time.Time {
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ToISODate converts M/D/YYYY (padding optional) into YYYY-MM-DD. A value
// already in YYYY-MM-DD form is returned as is.
func ToISODate(date string) (string, error) {
	trimmed := strings.TrimSpace(date)
	if _, err := time.Parse(ISODateLayout, trimmed); err == nil {
		return trimmed, nil
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("expected MM/DD/YYYY, got %q", date)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("expected MM/DD/YYYY, got %q", date)
		}
	}
	iso := fmt.Sprintf("%s-%s-%s", parts[2], padTwo(parts[0]), padTwo(parts[1]))
	if _, err := time.Parse(ISODateLayout, iso); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return iso, nil
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
