// Package setaside records set-aside requests and derives their outcome by
// running the allocation waterfall against the loan's accrual buckets.
package setaside

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a request or outcome does not exist.
var ErrNotFound = errors.New("set-aside request not found")

// Request is a saved set-aside request for one loan.
type Request struct {
	ID                      string          `json:"id"`
	LoanID                  int64           `json:"loanId"`
	CoreCustomerID          int64           `json:"coreCustomerId"`
	SetAsideType            string          `json:"setAsideType"`
	DisasterCode            string          `json:"disasterCode"`
	ApprovalDate            string          `json:"approvalDate,omitempty"`
	InstallmentDate         string          `json:"installmentDate"`
	SetAsideAmount          decimal.Decimal `json:"setAsideAmount"`
	PaymentAfterInstallment decimal.Decimal `json:"paymentAfterInstallment"`
	CreatedAt               time.Time       `json:"createdAt"`
}

// Accrual holds the installment amounts owed per interest bucket, which cap
// how much of a set-aside each bucket can absorb.
type Accrual struct {
	NonCapitalizedInterest         decimal.Decimal `json:"nonCapitalizedInterest"`
	DeferredNonCapitalizedInterest decimal.Decimal `json:"deferredNonCapitalizedInterest"`
	DeferredInterest               decimal.Decimal `json:"deferredInterest"`
	AccruedInterest                decimal.Decimal `json:"accruedInterest"`
}

// Input pairs the accrual capacities with a set-aside total.
func (a Accrual) Input(total decimal.Decimal) allocation.Input {
	return allocation.Input{
		TotalAmount:                            total,
		NonCapitalizedInterestCapacity:         a.NonCapitalizedInterest,
		DeferredNonCapitalizedInterestCapacity: a.DeferredNonCapitalizedInterest,
		DeferredInterestCapacity:               a.DeferredInterest,
		AccruedInterestCapacity:                a.AccruedInterest,
	}
}

// Outcome is the allocation recorded for a request.
type Outcome struct {
	RequestID          string            `json:"requestId"`
	LoanID             int64             `json:"loanId"`
	Accrual            Accrual           `json:"accrual"`
	Allocation         allocation.Output `json:"allocation"`
	ConfirmationNumber string            `json:"confirmationNumber"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// Store persists requests and outcomes.
type Store interface {
	SaveRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id string) (Request, error)
	ListRequests(ctx context.Context, loanID int64) ([]Request, error)
	SaveOutcome(ctx context.Context, out Outcome) error
	GetOutcome(ctx context.Context, requestID string) (Outcome, error)
	// DeleteRequest removes a request and its outcome.
	DeleteRequest(ctx context.Context, id string) error
	Close() error
}

// Cache keeps recently computed outcomes close at hand.
type Cache interface {
	Get(ctx context.Context, requestID string) (Outcome, bool)
	Set(ctx context.Context, out Outcome) error
	Delete(ctx context.Context, requestID string) error
}

// Publisher announces recorded outcomes to downstream systems.
type Publisher interface {
	PublishOutcome(ctx context.Context, out Outcome) error
}
