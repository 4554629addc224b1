package persistence

import (
	"context"
	"sync"
)

// Memory is a process-local BlobStore.
type Memory struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]Blob)}
}

func (m *Memory) Load(_ context.Context, key string) (Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return Blob{}, nil
	}
	return Blob{Data: append([]byte(nil), blob.Data...), Version: blob.Version}, nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.blobs[key]
	if current.Version != expectedVersion {
		return 0, ErrVersionConflict
	}
	next := current.Version + 1
	m.blobs[key] = Blob{Data: append([]byte(nil), data...), Version: next}
	return next, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
