package events

import (
	"context"
	"sync"

	"github.com/iwvelando/setaside/internal/setaside"
)

// Nop discards every outcome.
type Nop struct{}

func (Nop) PublishOutcome(context.Context, setaside.Outcome) error { return nil }

// Recorder keeps published messages in memory. Err, when set, is returned
// from every publish instead of recording.
type Recorder struct {
	mu       sync.Mutex
	messages []OutcomeRecorded
	Err      error
}

func (r *Recorder) PublishOutcome(_ context.Context, out setaside.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, NewOutcomeRecorded(out))
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []OutcomeRecorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutcomeRecorded, len(r.messages))
	copy(out, r.messages)
	return out
}
