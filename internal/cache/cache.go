// Package cache holds recently computed set-aside outcomes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/iwvelando/setaside/internal/setaside"
)

// Memory is a process-local outcome cache with optional expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	outcome setaside.Outcome
	expires time.Time
}

// NewMemory returns a cache whose entries live for ttl. A ttl of zero never expires.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, requestID string) (setaside.Outcome, bool) {
	m.mu.RLock()
	e, ok := m.entries[requestID]
	m.mu.RUnlock()
	if !ok {
		return setaside.Outcome{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.entries, requestID)
		m.mu.Unlock()
		return setaside.Outcome{}, false
	}
	return e.outcome, true
}

func (m *Memory) Set(_ context.Context, out setaside.Outcome) error {
	e := memoryEntry{outcome: out}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[out.RequestID] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, requestID string) error {
	m.mu.Lock()
	delete(m.entries, requestID)
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Nop never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (setaside.Outcome, bool) { return setaside.Outcome{}, false }
func (Nop) Set(context.Context, setaside.Outcome) error           { return nil }
func (Nop) Delete(context.Context, string) error                  { return nil }
