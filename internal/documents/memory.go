package documents

import (
	"context"
	"sync"
)

// Memory serves documents from a map, keyed the same way as GCS objects.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Put stores the raw object bytes for key/fileName. Text files must already
// be wrapped with EncodeText.
func (m *Memory) Put(key, fileName string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName(key, fileName)] = raw
}

func (m *Memory) Fetch(_ context.Context, key, fileName string) (Document, error) {
	m.mu.RLock()
	raw, ok := m.objects[objectName(key, fileName)]
	m.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	return newDocument(fileName, raw)
}
