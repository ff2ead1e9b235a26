// Package cache is the client-side recap cache: a key-value store with
// sqlite, memory and no-op backends, a session that owns the key layout,
// and the normalization pass every cached recap goes through on read.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("cache entry not found")

// Backend names a store implementation
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
	BackendNone   Backend = "none"
)

// ParseBackend validates a backend name
func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(raw))); b {
	case BackendSQLite, BackendMemory, BackendNone:
		return b, nil
	case "":
		return BackendNone, nil
	default:
		return "", fmt.Errorf("unsupported cache backend: %s. Must be sqlite, memory, or none", raw)
	}
}

// Item is one stored value
type Item struct {
	Key       string
	Value     []byte
	Version   int
	WrittenAt time.Time
}

// Status summarizes what a store holds
type Status struct {
	Backend  Backend
	Location string
	Entries  int
	Oldest   time.Time
	Newest   time.Time
}

// Store is a durable key-value store
type Store interface {
	Get(ctx context.Context, key string) (Item, error)
	Set(ctx context.Context, key string, value []byte, version int) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	Status(ctx context.Context) (Status, error)
	Close() error
}

// Open creates the store for a backend. path is only used by sqlite.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendNone:
		return NoneStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}
