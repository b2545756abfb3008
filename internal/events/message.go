// Package events announces recorded set-aside outcomes to downstream systems.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/shopspring/decimal"
)

// OutcomeRecorded is the message body published for each saved outcome.
type OutcomeRecorded struct {
	RequestID          string            `json:"requestId"`
	LoanID             int64             `json:"loanId"`
	ConfirmationNumber string            `json:"confirmationNumber"`
	Allocation         allocation.Output `json:"allocation"`
	Total              decimal.Decimal   `json:"total"`
	RecordedAt         time.Time         `json:"recordedAt"`
}

// NewOutcomeRecorded builds the message for out.
func NewOutcomeRecorded(out setaside.Outcome) OutcomeRecorded {
	return OutcomeRecorded{
		RequestID:          out.RequestID,
		LoanID:             out.LoanID,
		ConfirmationNumber: out.ConfirmationNumber,
		Allocation:         out.Allocation,
		Total:              out.Allocation.Total(),
		RecordedAt:         out.CreatedAt,
	}
}

func (m OutcomeRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OutcomeRecordedFromJSON decodes a published message.
func OutcomeRecordedFromJSON(data []byte) (OutcomeRecorded, error) {
	var m OutcomeRecorded
	if err := json.Unmarshal(data, &m); err != nil {
		return OutcomeRecorded{}, fmt.Errorf("decode outcome message: %w", err)
	}
	return m, nil
}
