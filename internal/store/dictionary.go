package store

import (
	"context"
	"sync"

	"github.com/gitrdm/owlreasoner/pkg/reason"
)

// MemoryDictionary is a two-way Term<->ID mapping keyed by a term's
// string form, handing out IDs sequentially starting at 1 (0 is
// reserved so a zero-valued reason.IDTriple is never mistaken for a
// real fact).
type MemoryDictionary struct {
	mu     sync.RWMutex
	toID   map[string]uint64
	toTerm map[uint64]reason.Term
	nextID uint64
}

// NewMemoryDictionary constructs an empty dictionary.
func NewMemoryDictionary() *MemoryDictionary {
	return &MemoryDictionary{
		toID:   make(map[string]uint64),
		toTerm: make(map[uint64]reason.Term),
		nextID: 1,
	}
}

func (d *MemoryDictionary) ToID(ctx context.Context, t reason.Term) (uint64, error) {
	key := t.String()

	d.mu.RLock()
	if id, ok := d.toID[key]; ok {
		d.mu.RUnlock()
		return id, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.toID[key]; ok {
		return id, nil
	}
	id := d.nextID
	d.nextID++
	d.toID[key] = id
	d.toTerm[id] = t
	return id, nil
}

func (d *MemoryDictionary) ToTerm(ctx context.Context, id uint64) (reason.Term, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.toTerm[id]
	if !ok {
		return nil, reasonNotFound(id)
	}
	return t, nil
}

// reasonNotFound builds the error ToTerm returns for an unknown id: a
// store-local value that carries no pkg/reason ErrorKind, so
// pkg/reason's wrapBackendError reports it as backend_error.
func reasonNotFound(id uint64) error {
	return &dictionaryMissError{id: id}
}

type dictionaryMissError struct{ id uint64 }

func (e *dictionaryMissError) Error() string {
	return "store: no term registered for dictionary id"
}
