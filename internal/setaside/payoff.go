package setaside

import (
	"github.com/iwvelando/setaside/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// LoanOutstanding is the outstanding balance set of a loan as reported by the
// accrual lookup, including any amounts already set aside.
type LoanOutstanding struct {
	UnpaidPrincipal        decimal.Decimal  `json:"unpaidPrincipal"`
	UnpaidPrincipalAdvance decimal.Decimal  `json:"unpaidPrincipalAdvance"`
	AccruedInterest        decimal.Decimal  `json:"accruedInterest"`
	AccruedInterestAdvance decimal.Decimal  `json:"accruedInterestAdvance"`
	NonCapInterest         decimal.Decimal  `json:"nonCapInterest"`
	NonCapDeferredInterest decimal.Decimal  `json:"nonCapDeferredInterest"`
	DeferredInterest       decimal.Decimal  `json:"deferredInterest"`
	DSAOutstandings        []DSAOutstanding `json:"dsaOutstandings"`
}

// DSAOutstanding is a previously set-aside balance still carried by the loan.
type DSAOutstanding struct {
	UnpaidPrincipal        decimal.Decimal `json:"unpaidPrincipal"`
	InstallmentInterest    decimal.Decimal `json:"installmentInterest"`
	AccruedInterest        decimal.Decimal `json:"accruedInterest"`
	NonCapInterest         decimal.Decimal `json:"nonCapInterest"`
	NonCapDeferredInterest decimal.Decimal `json:"nonCapDeferredInterest"`
	DeferredInterest       decimal.Decimal `json:"deferredInterest"`
}

// PrimaryDSA returns the first set-aside balance, or a zero one when there is none.
func (lo LoanOutstanding) PrimaryDSA() DSAOutstanding {
	if len(lo.DSAOutstandings) == 0 {
		return DSAOutstanding{}
	}
	return lo.DSAOutstandings[0]
}

func (lo LoanOutstanding) base() decimal.Decimal {
	return mathutil.SumDecimal(
		lo.UnpaidPrincipal,
		lo.UnpaidPrincipalAdvance,
		lo.AccruedInterest,
		lo.AccruedInterestAdvance,
		lo.NonCapInterest,
		lo.NonCapDeferredInterest,
		lo.DeferredInterest,
	)
}

// TotalPayoffDBSA is the payoff using the DBSA rate: the set-aside interest
// is the installment interest plus the separately computed DBSA accrued
// interest. An empty accruedInterest counts as zero.
func TotalPayoffDBSA(lo LoanOutstanding, accruedInterest string) decimal.Decimal {
	dsa := lo.PrimaryDSA()
	return lo.base().Add(mathutil.SumDecimal(
		dsa.UnpaidPrincipal,
		dsa.InstallmentInterest,
		mathutil.ParseDecimal(accruedInterest),
		dsa.NonCapInterest,
		dsa.NonCapDeferredInterest,
		dsa.DeferredInterest,
	))
}

// TotalPayoffNote is the payoff using the note rate.
func TotalPayoffNote(lo LoanOutstanding) decimal.Decimal {
	dsa := lo.PrimaryDSA()
	return lo.base().Add(mathutil.SumDecimal(
		dsa.UnpaidPrincipal,
		dsa.AccruedInterest,
		dsa.NonCapInterest,
		dsa.NonCapDeferredInterest,
		dsa.DeferredInterest,
	))
}
