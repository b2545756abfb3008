package installment

import (
	"reflect"
	"strconv"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		nextDue  time.Time
		maturity time.Time
		today    time.Time
		expected []string
	}{
		{
			name:     "Due date still ahead this year",
			nextDue:  date(2024, time.December, 31),
			maturity: date(2027, time.January, 1),
			today:    date(2024, time.June, 1),
			expected: []string{"12/31/2023", "12/31/2024", "12/31/2025"},
		},
		{
			name:     "Due date already passed this year",
			nextDue:  date(2024, time.March, 15),
			maturity: date(2040, time.January, 1),
			today:    date(2024, time.June, 1),
			expected: []string{"03/15/2024", "03/15/2025", "03/15/2026"},
		},
		{
			name:     "Today equals the anniversary",
			nextDue:  date(2019, time.June, 1),
			maturity: date(2040, time.January, 1),
			today:    date(2024, time.June, 1),
			expected: []string{"06/01/2023", "06/01/2024", "06/01/2025"},
		},
		{
			name:     "Due year is ignored in favour of today's year",
			nextDue:  date(2031, time.February, 10),
			maturity: date(2040, time.January, 1),
			today:    date(2024, time.June, 1),
			expected: []string{"02/10/2024", "02/10/2025", "02/10/2026"},
		},
		{
			name:     "Maturity window shorter than the cap",
			nextDue:  date(2024, time.January, 5),
			maturity: date(2027, time.July, 1),
			today:    date(2024, time.June, 1),
			expected: []string{"01/05/2024", "01/05/2025"},
		},
		{
			name:     "Maturity too close for any date",
			nextDue:  date(2024, time.January, 5),
			maturity: date(2025, time.July, 1),
			today:    date(2024, time.June, 1),
			expected: []string{},
		},
		{
			name:     "Leap day anniversary in a common year",
			nextDue:  date(2024, time.February, 29),
			maturity: date(2040, time.January, 1),
			today:    date(2025, time.June, 1),
			expected: []string{"03/01/2025", "03/01/2026", "03/01/2027"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Generate(tt.nextDue, tt.maturity, tt.today, "")
			if series.Options[0] != Placeholder {
				t.Fatalf("first option = %+v, expected placeholder", series.Options[0])
			}
			if len(series.Options) != len(tt.expected)+1 {
				t.Fatalf("got %d options, expected %d", len(series.Options), len(tt.expected)+1)
			}
			if got := series.Values(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Values() = %v, expected %v", got, tt.expected)
			}
			if series.Selection.Action != SelectionNone {
				t.Errorf("selection action = %s, expected none", series.Selection.Action)
			}
		})
	}
}

func TestGenerateLabels(t *testing.T) {
	series := Generate(date(2024, time.January, 5), date(2040, 1, 1), date(2024, time.June, 1), "")
	expected := []Option{
		Placeholder,
		{Value: "01/05/2024", Label: "1/5/2024"},
		{Value: "01/05/2025", Label: "1/5/2025"},
		{Value: "01/05/2026", Label: "1/5/2026"},
	}
	if !reflect.DeepEqual(series.Options, expected) {
		t.Errorf("Options = %+v, expected %+v", series.Options, expected)
	}
}

func TestGenerateDoesNotMutateDueDate(t *testing.T) {
	due := date(2030, time.December, 31)
	_ = Generate(due, date(2040, 1, 1), date(2024, time.June, 1), "")
	if due.Year() != 2030 {
		t.Errorf("due date was modified: %v", due)
	}
}

func TestGenerateSelection(t *testing.T) {
	nextDue := date(2024, time.December, 31)
	maturity := date(2027, time.January, 1)
	today := date(2024, time.June, 1)

	tests := []struct {
		name     string
		previous string
		maturity time.Time
		expected Selection
	}{
		{
			name:     "No previous selection",
			previous: "",
			maturity: maturity,
			expected: Selection{Action: SelectionNone},
		},
		{
			name:     "Previous selection still offered",
			previous: "12/31/2024",
			maturity: maturity,
			expected: Selection{Value: "12/31/2024", Action: SelectionKept},
		},
		{
			name:     "Previous selection dropped resets to the first date",
			previous: "12/31/2019",
			maturity: maturity,
			expected: Selection{Value: "12/31/2023", Action: SelectionReset, Notify: true},
		},
		{
			name:     "Reset with no dated options falls back to empty",
			previous: "12/31/2019",
			maturity: date(2024, 1, 1),
			expected: Selection{Value: "", Action: SelectionReset, Notify: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Generate(nextDue, tt.maturity, today, tt.previous)
			if series.Selection != tt.expected {
				t.Errorf("Selection = %+v, expected %+v", series.Selection, tt.expected)
			}
		})
	}
}

func TestApply(t *testing.T) {
	nextDue := date(2024, time.December, 31)
	maturity := date(2027, time.January, 1)
	today := date(2024, time.June, 1)

	if got := Generate(nextDue, maturity, today, "").Apply(""); got != "" {
		t.Errorf("Apply with no selection = %q", got)
	}
	if got := Generate(nextDue, maturity, today, "01/01/2000").Apply("01/01/2000"); got != "12/31/2023" {
		t.Errorf("Apply after reset = %q", got)
	}
	if got := Generate(nextDue, maturity, today, "12/31/2025").Apply("12/31/2025"); got != "12/31/2025" {
		t.Errorf("Apply after keep = %q", got)
	}
}

func TestGenerateProperties(t *testing.T) {
	today := date(2024, time.June, 1)
	for month := time.January; month <= time.December; month++ {
		for matYear := 2020; matYear <= 2040; matYear++ {
			series := Generate(date(2024, month, 15), date(matYear, 1, 1), today, "")
			values := series.Values()
			if len(values) > 3 {
				t.Fatalf("month %s maturity %d: %d dated options", month, matYear, len(values))
			}
			prevYear := 0
			for _, v := range values {
				if v[:6] != values[0][:6] {
					t.Fatalf("month/day changed within series: %v", values)
				}
				y, err := strconv.Atoi(v[6:])
				if err != nil {
					t.Fatalf("bad year in %q", v)
				}
				if prevYear != 0 && y != prevYear+1 {
					t.Fatalf("years not consecutive ascending: %v", values)
				}
				if y > matYear-2 {
					t.Fatalf("year %d beyond maturity window %d", y, matYear-2)
				}
				prevYear = y
			}
		}
	}
}
