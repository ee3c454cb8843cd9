package reason

import "context"

// This file defines the narrow interfaces the reasoning core consumes
// from its external collaborators (OUT OF SCOPE, "Storage backend
// (consumed)", "Triple index (consumed)", "Dictionary (consumed)"). No
// type here is implemented by this package for production use; see
// internal/store for an in-memory reference implementation used by
// tests and the cmd/example demo.

// KVOp is a single put or delete operation for a WriteBatch/DeleteBatch
// call.
type KVOp struct {
	CF    string
	Key   []byte
	Value []byte // unused for deletes
}

// KVPair is a (key, value) result from a prefix scan.
type KVPair struct {
	Key   []byte
	Value []byte
}

// Snapshot2 is a read view isolated from concurrent writes. Named
// Snapshot2 to avoid colliding with the Snapshot interface registry.go
// defines for compiled-rule-set/TBox publishing; the two concepts are
// unrelated.
type Snapshot2 interface {
	Get(ctx context.Context, cf string, key []byte) ([]byte, error)
	PrefixStream(ctx context.Context, cf string, prefix []byte) (KVIterator, error)
	Release()
}

// KVIterator is a lazy, single-pass, non-restartable sequence of
// (key, value) pairs in key-ascending order.
// Consumers MUST call Close on every exit path, including early
// termination and error, so backend cursors are released promptly.
type KVIterator interface {
	// Next advances the iterator and reports whether a pair is
	// available. Next must be called before the first Pair/Err.
	Next(ctx context.Context) bool
	// Pair returns the current (key, value) pair. Valid only after Next
	// returned true.
	Pair() KVPair
	// Err returns the first error encountered, if Next returned false
	// because of a failure rather than exhaustion.
	Err() error
	// Close releases the underlying cursor. Idempotent.
	Close() error
}

// StorageBackend is the column-family key/value capability consumed
// from the RocksDB-like backend. At minimum the named column
// families "spo", "pos", "osp", "derived" exist; this package only ever
// addresses "derived" directly (derived_store.go) — "spo"/"pos"/"osp"
// are addressed indirectly through TripleIndex.
type StorageBackend interface {
	Put(ctx context.Context, cf string, key, value []byte) error
	Get(ctx context.Context, cf string, key []byte) ([]byte, error)
	Delete(ctx context.Context, cf string, key []byte) error
	Exists(ctx context.Context, cf string, key []byte) (bool, error)

	// WriteBatch and DeleteBatch are atomic across the whole batch.
	WriteBatch(ctx context.Context, ops []KVOp) error
	DeleteBatch(ctx context.Context, ops []KVOp) error

	PrefixStream(ctx context.Context, cf string, prefix []byte) (KVIterator, error)

	NewSnapshot(ctx context.Context) (Snapshot2, error)
}

// IndexTerm is one position of an index-form pattern: either a
// bound 64-bit dictionary ID or an unbound variable placeholder. It is
// the storage-level analogue of Pattern's Term positions, after
// dictionary translation.
type IndexTerm struct {
	Bound bool
	Value uint64
}

// BoundTerm constructs a bound index-term.
func BoundTerm(v uint64) IndexTerm { return IndexTerm{Bound: true, Value: v} }

// VarTerm constructs an unbound (variable) index-term.
func VarTerm() IndexTerm { return IndexTerm{Bound: false} }

// IndexPattern is a triple pattern in the storage layer's {bound, v} /
// var form.
type IndexPattern struct {
	Subject   IndexTerm
	Predicate IndexTerm
	Object    IndexTerm
}

// IDTriple is a fully ground triple of 64-bit dictionary IDs.
type IDTriple struct {
	Subject, Predicate, Object uint64
}

// TripleIndex is the persistent triple index consumed from outside this
// package. lookup returns triples, lazily, in the index's
// documented order.
type TripleIndex interface {
	TripleExists(ctx context.Context, t IDTriple) (bool, error)
	InsertTriples(ctx context.Context, triples []IDTriple) error
	DeleteTriples(ctx context.Context, triples []IDTriple) error
	Lookup(ctx context.Context, pattern IndexPattern) (IDTripleIterator, error)
}

// IDTripleIterator is the ID-triple analogue of KVIterator.
type IDTripleIterator interface {
	Next(ctx context.Context) bool
	Triple() IDTriple
	Err() error
	Close() error
}

// Dictionary is the two-way term<->ID mapping consumed from outside
// this package. Stable across sessions.
type Dictionary interface {
	ToID(ctx context.Context, t Term) (uint64, error)
	ToTerm(ctx context.Context, id uint64) (Term, error)
}
