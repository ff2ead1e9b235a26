package provider

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotRegistered is returned when a known provider has no implementation wired
var ErrNotRegistered = errors.New("provider not registered")

// Registry maps provider identifiers to their implementations
type Registry struct {
	providers map[ID]Provider
	def       ID
}

// NewRegistry creates a registry that falls back to def for unknown ids
func NewRegistry(def ID) *Registry {
	return &Registry{providers: make(map[ID]Provider), def: def}
}

// Register wires an implementation for id, replacing any previous one
func (r *Registry) Register(id ID, p Provider) {
	r.providers[id] = p
}

// Default returns the fallback provider id
func (r *Registry) Default() ID {
	return r.def
}

// IDs returns the registered provider ids in sorted order
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve returns the provider for raw. Unknown or empty identifiers resolve
// to the default; an error is only returned when the resolved id has no
// registered implementation.
func (r *Registry) Resolve(raw string) (Provider, ID, error) {
	id, ok := ParseID(raw)
	if !ok {
		id = r.def
	}

	p, found := r.providers[id]
	if !found {
		return nil, id, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	return p, id, nil
}
