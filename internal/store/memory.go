package store

import (
	"context"
	"sort"
	"sync"

	"github.com/iwvelando/setaside/internal/setaside"
)

// Memory keeps requests and outcomes in process.
type Memory struct {
	mu       sync.RWMutex
	requests map[string]setaside.Request
	outcomes map[string]setaside.Outcome
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		requests: make(map[string]setaside.Request),
		outcomes: make(map[string]setaside.Outcome),
	}
}

func (m *Memory) SaveRequest(_ context.Context, req setaside.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (setaside.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return setaside.Request{}, setaside.ErrNotFound
	}
	return req, nil
}

func (m *Memory) ListRequests(_ context.Context, loanID int64) ([]setaside.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []setaside.Request
	for _, req := range m.requests {
		if req.LoanID == loanID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) SaveOutcome(_ context.Context, out setaside.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[out.RequestID]; !ok {
		return setaside.ErrNotFound
	}
	m.outcomes[out.RequestID] = out
	return nil
}

func (m *Memory) GetOutcome(_ context.Context, requestID string) (setaside.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out, ok := m.outcomes[requestID]
	if !ok {
		return setaside.Outcome{}, setaside.ErrNotFound
	}
	return out, nil
}

func (m *Memory) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return setaside.ErrNotFound
	}
	delete(m.requests, id)
	delete(m.outcomes, id)
	return nil
}

func (m *Memory) Close() error { return nil }
