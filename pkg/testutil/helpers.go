// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/iwvelando/setaside/internal/installment"
	"github.com/iwvelando/setaside/internal/setaside"
)

// FindRequest finds a request by ID in the requests slice.
// Returns a pointer to the request if found, nil otherwise.
func FindRequest(requests []setaside.Request, id string) *setaside.Request {
	for i := range requests {
		if requests[i].ID == id {
			return &requests[i]
		}
	}
	return nil
}

// FindOption finds an installment option by value, nil if it is not offered.
func FindOption(series installment.Series, value string) *installment.Option {
	for i := range series.Options {
		if series.Options[i].Value == value {
			return &series.Options[i]
		}
	}
	return nil
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
