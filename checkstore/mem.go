package checkstore

import (
	"context"
	"sync"
)

// MemStore keeps blobs in memory.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (m *MemStore) String() string {
	return "mem://"
}

func (m *MemStore) Put(ctx context.Context, location string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[location] = append([]byte(nil), data...)
	return nil
}

func (m *MemStore) Get(ctx context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[location]
	if !ok {
		return nil, &NotFoundError{Location: location}
	}
	return append([]byte(nil), data...), nil
}

// Locations returns the number of stored blobs.
func (m *MemStore) Locations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
