package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local store, used by the server and in tests
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[key]
	if !ok {
		return Item{}, ErrNotFound
	}
	item.Value = append([]byte(nil), item.Value...)
	return item, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = Item{
		Key:       key,
		Value:     append([]byte(nil), value...),
		Version:   version,
		WrittenAt: time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Status(_ context.Context) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{Backend: BackendMemory, Entries: len(m.items)}
	for _, item := range m.items {
		if st.Oldest.IsZero() || item.WrittenAt.Before(st.Oldest) {
			st.Oldest = item.WrittenAt
		}
		if item.WrittenAt.After(st.Newest) {
			st.Newest = item.WrittenAt
		}
	}
	return st, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// NoneStore disables caching: every read misses and writes are dropped
type NoneStore struct{}

var _ Store = NoneStore{}

func (NoneStore) Get(context.Context, string) (Item, error)           { return Item{}, ErrNotFound }
func (NoneStore) Set(context.Context, string, []byte, int) error      { return nil }
func (NoneStore) DeletePrefix(context.Context, string) (int64, error) { return 0, nil }
func (NoneStore) Status(context.Context) (Status, error)              { return Status{Backend: BackendNone}, nil }
func (NoneStore) Close() error                                        { return nil }
