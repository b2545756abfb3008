// Package installment builds the list of installment dates a borrower may
// pick for a set-aside, anchored on the loan's recurring due date.
package installment

import (
	"fmt"
	"time"

	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/datetime"
)

// Option is one entry of the installment date control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Placeholder is the leading "no selection" entry.
var Placeholder = Option{Value: "", Label: constants.PlaceholderLabel}

// SelectionAction says what the caller should do with its current selection.
type SelectionAction string

const (
	// SelectionNone means there was no prior selection to reconcile.
	SelectionNone SelectionAction = "none"
	// SelectionKept means the prior selection is still offered.
	SelectionKept SelectionAction = "kept"
	// SelectionReset means the prior selection is gone and Value replaces it.
	SelectionReset SelectionAction = "reset"
)

// Selection is the instruction returned alongside a new option list.
type Selection struct {
	Value  string          `json:"value"`
	Action SelectionAction `json:"action"`
	// Notify is set when applying Value should be announced as a change.
	Notify bool `json:"notify"`
}

// Series is a freshly generated option list and the selection to apply.
type Series struct {
	Options   []Option  `json:"options"`
	Selection Selection `json:"selection"`
}

// Generate computes the installment date options.
//
// The working year starts at today's year and steps back one when today has
// not yet passed the due date's anniversary in that year. Options run yearly
// from there, stopping after MaxInstallmentDates entries or once the year
// passes maturity minus MaturityYearOffset. The due date itself is not modified.
func Generate(nextDueDate, maturityDate, today time.Time, previous string) Series {
	options := []Option{Placeholder}

	year := today.Year()
	anniversary := datetime.WithYear(nextDueDate, year)
	monthDay := anniversary.Format(constants.MonthDayLayout)
	if !today.After(anniversary) {
		year--
	}

	lastYearNeeded := maturityDate.Year() - constants.MaturityYearOffset
	for count := 0; year <= lastYearNeeded && count < constants.MaxInstallmentDates; count++ {
		value := fmt.Sprintf("%s%d", monthDay, year)
		options = append(options, Option{Value: value, Label: label(value)})
		year++
	}

	return Series{Options: options, Selection: reconcile(options, previous)}
}

func label(value string) string {
	t, err := time.Parse(constants.InstallmentDateLayout, value)
	if err != nil {
		return value
	}
	return datetime.FormatLabel(t)
}

func reconcile(options []Option, previous string) Selection {
	if previous == "" {
		return Selection{Action: SelectionNone}
	}
	for _, opt := range options {
		if opt.Value == previous {
			return Selection{Value: previous, Action: SelectionKept}
		}
	}
	reset := ""
	if len(options) > 1 {
		reset = options[1].Value
	}
	return Selection{Value: reset, Action: SelectionReset, Notify: true}
}

// Values returns the dated option values, without the placeholder.
func (s Series) Values() []string {
	values := make([]string, 0, len(s.Options))
	for _, opt := range s.Options {
		if opt.Value != "" {
			values = append(values, opt.Value)
		}
	}
	return values
}

// Apply returns the value the caller's control should hold after the
// selection instruction is applied.
func (s Series) Apply(current string) string {
	if s.Selection.Action == SelectionNone {
		return current
	}
	return s.Selection.Value
}
