package reason

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Snapshot is the constraint every value published into a Registry must
// satisfy: it carries its own content-addressed version so staleness
// can be detected without a second round trip.
type Snapshot interface {
	SnapshotVersion() string
}

// Registry is a process-wide, immutable snapshot store keyed by an
// opaque identifier. It backs the compiled-rule-set
// registry and the TBox class/property hierarchy caches.
//
// Registry re-architects the source's fast read-only global facility as
// a read/write-mutex-guarded map. Unlike a bare map, a Registry is
// bounded: entries are held in a bounded LRU so a process that compiles
// many ontologies over a long lifetime cannot grow the registry without
// bound. Readers share the read lock and a writer waits for them, so a
// read never observes a torn snapshot: Load always returns a value that
// was fully constructed before Store was called.
type Registry[T Snapshot] struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, T]
}

// defaultRegistryCapacity bounds the number of live snapshots per
// Registry. 4096 comfortably covers any realistic number of
// concurrently loaded ontologies while still being a hard ceiling.
const defaultRegistryCapacity = 4096

// NewRegistry creates an empty registry. capacity <= 0 uses
// defaultRegistryCapacity.
func NewRegistry[T Snapshot](capacity int) *Registry[T] {
	if capacity <= 0 {
		capacity = defaultRegistryCapacity
	}
	c, err := lru.New[string, T](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0, already guarded above.
		panic(err)
	}
	return &Registry[T]{cache: c}
}

// Store publishes value under key, atomically replacing any prior
// snapshot for that key. Concurrent readers either see the old value or
// the new one, never a mix.
func (r *Registry[T]) Store(key string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(key, value)
}

// Load returns the snapshot published under key, or ErrNotFound if
// absent.
func (r *Registry[T]) Load(key string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.cache.Get(key)
	if !ok {
		var zero T
		return zero, newError(ErrNotFound, "registry: no snapshot for key %q", key)
	}
	return v, nil
}

// Exists reports whether key has a published snapshot.
func (r *Registry[T]) Exists(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Contains(key)
}

// Remove evicts the snapshot at key, if any. Safe to call on an absent
// key.
func (r *Registry[T]) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(key)
}

// Clear evicts every snapshot.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}

// List returns every live key, in no particular order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Keys()
}

// Stale reports whether the snapshot published under key has a
// different version than expectedVersion — true whenever key is
// absent, too (a missing snapshot is, trivially, not the version the
// caller holds).
func (r *Registry[T]) Stale(key string, expectedVersion string) bool {
	v, err := r.Load(key)
	if err != nil {
		return true
	}
	return v.SnapshotVersion() != expectedVersion
}
