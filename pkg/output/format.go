// Package output provides utilities for formatting and displaying allocation
// and installment date results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/installment"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is what the CLI renders. Either part may be nil.
type Report struct {
	Input      allocation.Input
	Allocation *allocation.Output
	Series     *installment.Series
}

var bucketLabels = map[string]string{
	allocation.BucketNonCapitalizedInterest:         "Non-Capitalized Interest",
	allocation.BucketDeferredNonCapitalizedInterest: "Deferred Non-Capitalized Interest",
	allocation.BucketDeferredInterest:               "Deferred Interest",
	allocation.BucketInterest:                       "Interest",
	allocation.BucketPrincipal:                      "Principal",
}

// BucketLabel returns the display name of a bucket.
func BucketLabel(bucket string) string {
	if label, ok := bucketLabels[bucket]; ok {
		return label
	}
	return bucket
}

// capacityStrings pads the capped bucket capacities with an empty principal entry.
func capacityStrings(in allocation.Input) []string {
	caps := in.Capacities()
	out := make([]string, len(allocation.Buckets))
	for i, c := range caps {
		out[i] = c.StringFixed(2)
	}
	return out
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) {
	p := message.NewPrinter(language.English)

	if report.Allocation != nil {
		amounts := report.Allocation.Float64s()
		caps := report.Input.Capacities()
		_, _ = p.Fprintf(w, "--- Allocation of $%.2f ---\n", report.Input.TotalAmount.InexactFloat64())
		fmt.Fprintf(w, "Bucket                            | Capacity      | Amount\n")
		fmt.Fprintf(w, "______                            | ________      | ______\n")
		for i, bucket := range allocation.Buckets {
			// Principal has no ceiling.
			capacity := "-"
			if i < len(caps) {
				capacity = p.Sprintf("$%.2f", caps[i].InexactFloat64())
			}
			_, _ = p.Fprintf(w, "%-33s | %-13s | $%.2f\n", BucketLabel(bucket), capacity, amounts[i])
		}
		_, _ = p.Fprintf(w, "%-33s | %-13s | $%.2f\n", "Total", "", report.Allocation.Total().InexactFloat64())
	}

	if report.Series != nil {
		if report.Allocation != nil {
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "--- Installment dates ---\n")
		fmt.Fprintf(w, "Value      | Label\n")
		fmt.Fprintf(w, "_____      | _____\n")
		for _, opt := range report.Series.Options {
			fmt.Fprintf(w, "%-10s | %s\n", opt.Value, opt.Label)
		}
		if sel := report.Series.Selection; sel.Action != installment.SelectionNone {
			fmt.Fprintf(w, "Selection: %s (%s)\n", sel.Value, sel.Action)
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, report Report) {
	_, _ = io.WriteString(w, CsvString(report))
}

// CsvString renders the report as CSV. The allocation and the date list are
// separate tables divided by a blank line.
func CsvString(report Report) string {
	var b strings.Builder

	if report.Allocation != nil {
		b.WriteString(`"bucket","capacity","amount"` + "\n")
		caps := capacityStrings(report.Input)
		for i, amount := range report.Allocation.Amounts() {
			fmt.Fprintf(&b, `"%s","%s","%s"`+"\n", allocation.Buckets[i], caps[i], amount.StringFixed(2))
		}
		fmt.Fprintf(&b, `"total","%s","%s"`+"\n", report.Input.CapacityTotal().StringFixed(2), report.Allocation.Total().StringFixed(2))
	}

	if report.Series != nil {
		if report.Allocation != nil {
			b.WriteString("\n")
		}
		b.WriteString(`"value","label"` + "\n")
		for _, opt := range report.Series.Options {
			fmt.Fprintf(&b, `"%s","%s"`+"\n", opt.Value, opt.Label)
		}
	}

	return b.String()
}
