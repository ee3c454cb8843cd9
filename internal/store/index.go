package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gitrdm/owlreasoner/pkg/reason"
)

// MemoryTripleIndex is a TripleIndex over ID-triples, indexed by
// subject, predicate, and object so Lookup can use whichever position
// a pattern binds, mirroring pldb.go's per-column factIndex (a map from
// a term's value to the row IDs that carry it in that column) reshaped
// onto 64-bit dictionary IDs rather than hashed arbitrary terms — the
// IDs are already small comparable keys, so no hashing step is needed.
type MemoryTripleIndex struct {
	mu sync.RWMutex

	facts map[reason.IDTriple]bool

	bySubject   map[uint64]map[reason.IDTriple]bool
	byPredicate map[uint64]map[reason.IDTriple]bool
	byObject    map[uint64]map[reason.IDTriple]bool
}

// NewMemoryTripleIndex constructs an empty index.
func NewMemoryTripleIndex() *MemoryTripleIndex {
	return &MemoryTripleIndex{
		facts:       make(map[reason.IDTriple]bool),
		bySubject:   make(map[uint64]map[reason.IDTriple]bool),
		byPredicate: make(map[uint64]map[reason.IDTriple]bool),
		byObject:    make(map[uint64]map[reason.IDTriple]bool),
	}
}

func addToPosIndex(idx map[uint64]map[reason.IDTriple]bool, pos uint64, t reason.IDTriple) {
	set, ok := idx[pos]
	if !ok {
		set = make(map[reason.IDTriple]bool)
		idx[pos] = set
	}
	set[t] = true
}

func removeFromPosIndex(idx map[uint64]map[reason.IDTriple]bool, pos uint64, t reason.IDTriple) {
	if set, ok := idx[pos]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(idx, pos)
		}
	}
}

func (m *MemoryTripleIndex) TripleExists(ctx context.Context, t reason.IDTriple) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.facts[t], nil
}

func (m *MemoryTripleIndex) InsertTriples(ctx context.Context, triples []reason.IDTriple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triples {
		if m.facts[t] {
			continue
		}
		m.facts[t] = true
		addToPosIndex(m.bySubject, t.Subject, t)
		addToPosIndex(m.byPredicate, t.Predicate, t)
		addToPosIndex(m.byObject, t.Object, t)
	}
	return nil
}

func (m *MemoryTripleIndex) DeleteTriples(ctx context.Context, triples []reason.IDTriple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triples {
		if !m.facts[t] {
			continue
		}
		delete(m.facts, t)
		removeFromPosIndex(m.bySubject, t.Subject, t)
		removeFromPosIndex(m.byPredicate, t.Predicate, t)
		removeFromPosIndex(m.byObject, t.Object, t)
	}
	return nil
}

// Lookup implements TripleIndex.Lookup: picks whichever bound position
// (subject, predicate, or object, in that preference order) narrows the
// candidate set the most cheaply, then filters the rest in memory.
func (m *MemoryTripleIndex) Lookup(ctx context.Context, pattern reason.IndexPattern) (reason.IDTripleIterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates map[reason.IDTriple]bool
	switch {
	case pattern.Subject.Bound:
		candidates = m.bySubject[pattern.Subject.Value]
	case pattern.Predicate.Bound:
		candidates = m.byPredicate[pattern.Predicate.Value]
	case pattern.Object.Bound:
		candidates = m.byObject[pattern.Object.Value]
	default:
		candidates = m.facts
	}

	out := make([]reason.IDTriple, 0, len(candidates))
	for t := range candidates {
		if pattern.Subject.Bound && t.Subject != pattern.Subject.Value {
			continue
		}
		if pattern.Predicate.Bound && t.Predicate != pattern.Predicate.Value {
			continue
		}
		if pattern.Object.Bound && t.Object != pattern.Object.Value {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Predicate != out[j].Predicate {
			return out[i].Predicate < out[j].Predicate
		}
		return out[i].Object < out[j].Object
	})
	return &sliceIDTripleIterator{triples: out, idx: -1}, nil
}

type sliceIDTripleIterator struct {
	triples []reason.IDTriple
	idx     int
}

func (it *sliceIDTripleIterator) Next(ctx context.Context) bool {
	if it.idx+1 >= len(it.triples) {
		return false
	}
	it.idx++
	return true
}

func (it *sliceIDTripleIterator) Triple() reason.IDTriple { return it.triples[it.idx] }
func (it *sliceIDTripleIterator) Err() error              { return nil }
func (it *sliceIDTripleIterator) Close() error            { return nil }
