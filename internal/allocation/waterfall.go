// Package allocation splits a set-aside amount across the interest and
// principal buckets of a loan in fixed priority order.
package allocation

import (
	"github.com/iwvelando/setaside/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Input holds the amount to allocate and the capacity of each capped bucket.
type Input struct {
	TotalAmount                            decimal.Decimal `json:"totalAmount"`
	NonCapitalizedInterestCapacity         decimal.Decimal `json:"nonCapitalizedInterestCapacity"`
	DeferredNonCapitalizedInterestCapacity decimal.Decimal `json:"deferredNonCapitalizedInterestCapacity"`
	DeferredInterestCapacity               decimal.Decimal `json:"deferredInterestCapacity"`
	AccruedInterestCapacity                decimal.Decimal `json:"accruedInterestCapacity"`
}

// Output holds the amount charged to each bucket. Principal has no ceiling.
type Output struct {
	NonCapitalizedInterestAmount         decimal.Decimal `json:"nonCapitalizedInterestAmount"`
	DeferredNonCapitalizedInterestAmount decimal.Decimal `json:"deferredNonCapitalizedInterestAmount"`
	DeferredInterestAmount               decimal.Decimal `json:"deferredInterestAmount"`
	InterestAmount                       decimal.Decimal `json:"interestAmount"`
	PrincipalAmount                      decimal.Decimal `json:"principalAmount"`
}

// Bucket names, in allocation order.
const (
	BucketNonCapitalizedInterest         = "nonCapitalizedInterest"
	BucketDeferredNonCapitalizedInterest = "deferredNonCapitalizedInterest"
	BucketDeferredInterest               = "deferredInterest"
	BucketInterest                       = "interest"
	BucketPrincipal                      = "principal"
)

// Buckets lists the bucket names in the order they are filled.
var Buckets = []string{
	BucketNonCapitalizedInterest,
	BucketDeferredNonCapitalizedInterest,
	BucketDeferredInterest,
	BucketInterest,
	BucketPrincipal,
}

// CapacityTotal is the sum of the four capped buckets.
func (in Input) CapacityTotal() decimal.Decimal {
	return mathutil.SumDecimal(in.Capacities()...)
}

// Capacities returns the four capped bucket capacities in allocation order.
func (in Input) Capacities() []decimal.Decimal {
	return []decimal.Decimal{
		in.NonCapitalizedInterestCapacity,
		in.DeferredNonCapitalizedInterestCapacity,
		in.DeferredInterestCapacity,
		in.AccruedInterestCapacity,
	}
}

// Amounts returns the bucket amounts in allocation order.
func (out Output) Amounts() []decimal.Decimal {
	return []decimal.Decimal{
		out.NonCapitalizedInterestAmount,
		out.DeferredNonCapitalizedInterestAmount,
		out.DeferredInterestAmount,
		out.InterestAmount,
		out.PrincipalAmount,
	}
}

// Total is the sum of all five buckets.
func (out Output) Total() decimal.Decimal {
	return mathutil.SumDecimal(out.Amounts()...)
}

// Float64s returns the bucket amounts in allocation order as float64.
func (out Output) Float64s() []float64 {
	amounts := out.Amounts()
	floats := make([]float64, len(amounts))
	for i, a := range amounts {
		floats[i] = a.InexactFloat64()
	}
	return floats
}

// Allocate runs the waterfall. It never fails: a zero or negative total
// yields an all-zero output.
func Allocate(in Input) Output {
	var out Output
	remaining := in.TotalAmount

	// Non-capitalized interest takes whatever it can, never below zero.
	out.NonCapitalizedInterestAmount = mathutil.MinDecimal(remaining, in.NonCapitalizedInterestCapacity)
	if remaining.LessThanOrEqual(decimal.Zero) {
		out.NonCapitalizedInterestAmount = decimal.Zero
	}
	remaining = remaining.Sub(out.NonCapitalizedInterestAmount)

	out.DeferredNonCapitalizedInterestAmount = fill(remaining, in.DeferredNonCapitalizedInterestCapacity)
	remaining = remaining.Sub(out.DeferredNonCapitalizedInterestAmount)

	out.DeferredInterestAmount = fill(remaining, in.DeferredInterestCapacity)
	remaining = remaining.Sub(out.DeferredInterestAmount)

	out.InterestAmount = fill(remaining, in.AccruedInterestCapacity)
	remaining = remaining.Sub(out.InterestAmount)

	// Principal is gated on the original total, not the running remainder.
	if in.TotalAmount.LessThanOrEqual(in.CapacityTotal()) {
		out.PrincipalAmount = decimal.Zero
	} else {
		out.PrincipalAmount = remaining
	}

	return out
}

func fill(remaining, capacity decimal.Decimal) decimal.Decimal {
	switch {
	case remaining.GreaterThanOrEqual(capacity):
		return capacity
	case remaining.LessThanOrEqual(decimal.Zero):
		return decimal.Zero
	default:
		return remaining
	}
}

// NormalizeTotal strips everything but digits and the decimal point from a
// user-entered amount and parses it; unparsable input becomes zero.
func NormalizeTotal(raw string) decimal.Decimal {
	return mathutil.ParseDecimal(raw)
}

// FromStrings builds an Input from raw form values, normalizing each one.
func FromStrings(total, nonCapitalized, deferredNonCapitalized, deferred, accrued string) Input {
	return Input{
		TotalAmount:                            NormalizeTotal(total),
		NonCapitalizedInterestCapacity:         NormalizeTotal(nonCapitalized),
		DeferredNonCapitalizedInterestCapacity: NormalizeTotal(deferredNonCapitalized),
		DeferredInterestCapacity:               NormalizeTotal(deferred),
		AccruedInterestCapacity:                NormalizeTotal(accrued),
	}
}

// AllocateString normalizes a raw total and allocates it against the given capacities.
func AllocateString(total string, nonCapitalized, deferredNonCapitalized, deferred, accrued decimal.Decimal) Output {
	return Allocate(Input{
		TotalAmount:                            NormalizeTotal(total),
		NonCapitalizedInterestCapacity:         nonCapitalized,
		DeferredNonCapitalizedInterestCapacity: deferredNonCapitalized,
		DeferredInterestCapacity:               deferred,
		AccruedInterestCapacity:                accrued,
	})
}
