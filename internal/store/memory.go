// Package store is an in-memory reference implementation of the
// StorageBackend, TripleIndex, and Dictionary interfaces pkg/reason
// consumes (pkg/reason/external.go). It exists for tests and the
// cmd/example demo; a production deployment would point the reasoner
// at a real column-family store instead.
//
// The indexed-lookup idiom here is adapted
// from pldb.go's in-memory relational database, reshaped from its
// copy-on-write, backtracking-oriented Database onto the
// simpler (put/get/delete/prefix-scan) contract external.go defines —
// this package has no need for pldb's snapshot-per-goal semantics, so
// plain mutex-guarded maps replace the copy-on-write cloning.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gitrdm/owlreasoner/pkg/reason"
)

// MemoryBackend is a StorageBackend over in-process maps, one per
// column family, guarded by a single RWMutex.
type MemoryBackend struct {
	mu  sync.RWMutex
	cfs map[string]map[string][]byte
}

// NewMemoryBackend constructs an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cfs: make(map[string]map[string][]byte)}
}

func (b *MemoryBackend) cf(name string) map[string][]byte {
	m, ok := b.cfs[name]
	if !ok {
		m = make(map[string][]byte)
		b.cfs[name] = m
	}
	return m
}

func (b *MemoryBackend) Put(ctx context.Context, cf string, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	b.cf(cf)[string(key)] = v
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, cf string, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.cfs[cf][string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, cf string, key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cf(cf), string(key))
	return nil
}

func (b *MemoryBackend) Exists(ctx context.Context, cf string, key []byte) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.cfs[cf][string(key)]
	return ok, nil
}

// WriteBatch applies every op atomically with respect to other callers
// (single lock held for the whole batch), per external.go's contract.
func (b *MemoryBackend) WriteBatch(ctx context.Context, ops []reason.KVOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range ops {
		v := make([]byte, len(op.Value))
		copy(v, op.Value)
		b.cf(op.CF)[string(op.Key)] = v
	}
	return nil
}

func (b *MemoryBackend) DeleteBatch(ctx context.Context, ops []reason.KVOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range ops {
		delete(b.cf(op.CF), string(op.Key))
	}
	return nil
}

// PrefixStream returns every (key, value) pair in cf whose key starts
// with prefix (nil or empty prefix means the whole column family), in
// ascending key order.
func (b *MemoryBackend) PrefixStream(ctx context.Context, cf string, prefix []byte) (reason.KVIterator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src := b.cfs[cf]
	keys := make([]string, 0, len(src))
	p := string(prefix)
	for k := range src {
		if len(p) == 0 || (len(k) >= len(p) && k[:len(p)] == p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]reason.KVPair, 0, len(keys))
	for _, k := range keys {
		v := src[k]
		vc := make([]byte, len(v))
		copy(vc, v)
		pairs = append(pairs, reason.KVPair{Key: []byte(k), Value: vc})
	}
	return &sliceKVIterator{pairs: pairs, idx: -1}, nil
}

// memorySnapshot is a point-in-time copy of every column family,
// isolated from concurrent writes by virtue of being a deep copy taken
// under the backend's read lock.
type memorySnapshot struct {
	cfs map[string]map[string][]byte
}

func (b *MemoryBackend) NewSnapshot(ctx context.Context) (reason.Snapshot2, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	copyCfs := make(map[string]map[string][]byte, len(b.cfs))
	for cf, m := range b.cfs {
		cm := make(map[string][]byte, len(m))
		for k, v := range m {
			vc := make([]byte, len(v))
			copy(vc, v)
			cm[k] = vc
		}
		copyCfs[cf] = cm
	}
	return &memorySnapshot{cfs: copyCfs}, nil
}

func (s *memorySnapshot) Get(ctx context.Context, cf string, key []byte) ([]byte, error) {
	v, ok := s.cfs[cf][string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *memorySnapshot) PrefixStream(ctx context.Context, cf string, prefix []byte) (reason.KVIterator, error) {
	src := s.cfs[cf]
	keys := make([]string, 0, len(src))
	p := string(prefix)
	for k := range src {
		if len(p) == 0 || (len(k) >= len(p) && k[:len(p)] == p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]reason.KVPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, reason.KVPair{Key: []byte(k), Value: src[k]})
	}
	return &sliceKVIterator{pairs: pairs, idx: -1}, nil
}

func (s *memorySnapshot) Release() {}

// sliceKVIterator adapts a precomputed slice of KVPair to the
// KVIterator contract.
type sliceKVIterator struct {
	pairs []reason.KVPair
	idx   int
}

func (it *sliceKVIterator) Next(ctx context.Context) bool {
	if it.idx+1 >= len(it.pairs) {
		return false
	}
	it.idx++
	return true
}

func (it *sliceKVIterator) Pair() reason.KVPair { return it.pairs[it.idx] }
func (it *sliceKVIterator) Err() error          { return nil }
func (it *sliceKVIterator) Close() error        { return nil }
