package reason

import (
	"context"
)

// DerivedCF is the column family name used for all inferred triples.
// It is distinct from the "spo"/"pos"/"osp" families the
// external triple index owns.
const DerivedCF = "derived"

// clearBatchSize is the default streaming-delete batch size for
// ClearAll ("clear_all()... streams the entire column family in
// batches (default 1 000)").
const clearBatchSize = 1000

// TripleIterator is a lazy, single-pass sequence of Term-level triples.
// Callers MUST Close it on every exit path.
type TripleIterator interface {
	Next(ctx context.Context) bool
	Triple() Triple
	Err() error
	Close() error
}

// DerivedStore is the key/value area distinct from the explicit-fact
// index used for all inferred triples. It translates between the
// Term-level Pattern/Triple vocabulary the rule layer uses and the
// 24-byte big-endian SPO keys (key.go) the storage layer uses, via
// Dictionary.
type DerivedStore struct {
	backend  StorageBackend
	dict     Dictionary
	explicit TripleIndex
}

// NewDerivedStore constructs a store over backend's "derived" column
// family, translating terms through dict. explicit is consulted by
// LookupAll; it may be nil if only derived-store
// access is needed.
func NewDerivedStore(backend StorageBackend, dict Dictionary, explicit TripleIndex) *DerivedStore {
	return &DerivedStore{backend: backend, dict: dict, explicit: explicit}
}

func (s *DerivedStore) tripleKey(ctx context.Context, t Triple) (TripleKey, error) {
	sid, err := s.dict.ToID(ctx, t.Subject)
	if err != nil {
		return TripleKey{}, wrapBackendError(err)
	}
	pid, err := s.dict.ToID(ctx, t.Predicate)
	if err != nil {
		return TripleKey{}, wrapBackendError(err)
	}
	oid, err := s.dict.ToID(ctx, t.Object)
	if err != nil {
		return TripleKey{}, wrapBackendError(err)
	}
	return EncodeKey(sid, pid, oid), nil
}

// InsertDerived batch-writes triples into the derived store. Idempotent:
// re-inserting an already-present triple is a no-op write of the same
// key with an empty value.
func (s *DerivedStore) InsertDerived(ctx context.Context, triples []Triple) error {
	if len(triples) == 0 {
		return nil
	}
	ops := make([]KVOp, 0, len(triples))
	for _, t := range triples {
		k, err := s.tripleKey(ctx, t)
		if err != nil {
			return err
		}
		ops = append(ops, KVOp{CF: DerivedCF, Key: k.Bytes()})
	}
	return wrapBackendError(s.backend.WriteBatch(ctx, ops))
}

// DeleteDerived batch-deletes triples from the derived store. Absent
// keys are no-ops.
func (s *DerivedStore) DeleteDerived(ctx context.Context, triples []Triple) error {
	if len(triples) == 0 {
		return nil
	}
	ops := make([]KVOp, 0, len(triples))
	for _, t := range triples {
		k, err := s.tripleKey(ctx, t)
		if err != nil {
			return err
		}
		ops = append(ops, KVOp{CF: DerivedCF, Key: k.Bytes()})
	}
	return wrapBackendError(s.backend.DeleteBatch(ctx, ops))
}

// DerivedExists reports whether t is present in the derived store.
func (s *DerivedStore) DerivedExists(ctx context.Context, t Triple) (bool, error) {
	k, err := s.tripleKey(ctx, t)
	if err != nil {
		return false, err
	}
	ok, err := s.backend.Exists(ctx, DerivedCF, k.Bytes())
	return ok, wrapBackendError(err)
}

// ClearAll deletes every derived triple, streaming the column family in
// batches to avoid loading all keys into memory, and returns the
// number of keys removed.
func (s *DerivedStore) ClearAll(ctx context.Context) (int, error) {
	it, err := s.backend.PrefixStream(ctx, DerivedCF, nil)
	if err != nil {
		return 0, wrapBackendError(err)
	}
	defer it.Close()

	total := 0
	batch := make([]KVOp, 0, clearBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.backend.DeleteBatch(ctx, batch); err != nil {
			return wrapBackendError(err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}
	for it.Next(ctx) {
		kv := it.Pair()
		batch = append(batch, KVOp{CF: DerivedCF, Key: kv.Key})
		if len(batch) >= clearBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return total, wrapBackendError(err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// Count returns the number of derived triples currently stored.
func (s *DerivedStore) Count(ctx context.Context) (int, error) {
	it, err := s.backend.PrefixStream(ctx, DerivedCF, nil)
	if err != nil {
		return 0, wrapBackendError(err)
	}
	defer it.Close()
	n := 0
	for it.Next(ctx) {
		n++
	}
	return n, wrapBackendError(it.Err())
}

// toIndexPattern translates a Term-level Pattern into the storage
// layer's {bound, v} / var form, resolving constants through dict.
func (s *DerivedStore) toIndexPattern(ctx context.Context, p Pattern) (IndexPattern, error) {
	conv := func(t Term) (IndexTerm, error) {
		if t.IsVar() {
			return VarTerm(), nil
		}
		id, err := s.dict.ToID(ctx, t)
		if err != nil {
			return IndexTerm{}, wrapBackendError(err)
		}
		return BoundTerm(id), nil
	}
	sub, err := conv(p.Subject)
	if err != nil {
		return IndexPattern{}, err
	}
	pred, err := conv(p.Predicate)
	if err != nil {
		return IndexPattern{}, err
	}
	obj, err := conv(p.Object)
	if err != nil {
		return IndexPattern{}, err
	}
	return IndexPattern{Subject: sub, Predicate: pred, Object: obj}, nil
}

// prefixFor implements the prefix-selection table: all-bound gives
// an exact 24-byte key; (s,p) bound gives a 16-byte prefix; s bound
// alone gives an 8-byte prefix; otherwise there is no usable prefix and
// the caller must fall back to a full scan with a per-triple filter.
func prefixFor(p IndexPattern) (prefix []byte, exact bool, usable bool) {
	switch {
	case p.Subject.Bound && p.Predicate.Bound && p.Object.Bound:
		k := EncodeKey(p.Subject.Value, p.Predicate.Value, p.Object.Value)
		return k.Bytes(), true, true
	case p.Subject.Bound && p.Predicate.Bound:
		return SubjectPredicatePrefix(p.Subject.Value, p.Predicate.Value), false, true
	case p.Subject.Bound:
		return SubjectPrefix(p.Subject.Value), false, true
	default:
		return nil, false, false
	}
}

func idPatternMatches(p IndexPattern, idt IDTriple) bool {
	if p.Subject.Bound && p.Subject.Value != idt.Subject {
		return false
	}
	if p.Predicate.Bound && p.Predicate.Value != idt.Predicate {
		return false
	}
	if p.Object.Bound && p.Object.Value != idt.Object {
		return false
	}
	return true
}

// derivedTripleIterator adapts a raw KVIterator plus a Dictionary back
// into Term-level Triples, applying the index-pattern filter and, when
// an exact key lookup already determined a single hit, a single-shot
// slice iterator.
type derivedTripleIterator struct {
	backend KVIterator
	pattern IndexPattern
	dict    Dictionary
	cur     Triple
	err     error

	// single-result path, used for the exact-key case.
	single    []Triple
	singleIdx int
}

func (it *derivedTripleIterator) Next(ctx context.Context) bool {
	if it.backend == nil {
		if it.singleIdx < len(it.single) {
			it.cur = it.single[it.singleIdx]
			it.singleIdx++
			return true
		}
		return false
	}
	for it.backend.Next(ctx) {
		kv := it.backend.Pair()
		k, kerr := KeyFromBytes(kv.Key)
		if kerr != nil {
			it.err = kerr
			return false
		}
		s, p, o := DecodeKey(k)
		idt := IDTriple{Subject: s, Predicate: p, Object: o}
		if !idPatternMatches(it.pattern, idt) {
			continue
		}
		st, err := it.dict.ToTerm(ctx, s)
		if err != nil {
			it.err = wrapBackendError(err)
			return false
		}
		pt, err := it.dict.ToTerm(ctx, p)
		if err != nil {
			it.err = wrapBackendError(err)
			return false
		}
		ot, err := it.dict.ToTerm(ctx, o)
		if err != nil {
			it.err = wrapBackendError(err)
			return false
		}
		it.cur = NewTriple(st, pt, ot)
		return true
	}
	if err := it.backend.Err(); err != nil {
		it.err = wrapBackendError(err)
	}
	return false
}

func (it *derivedTripleIterator) Triple() Triple { return it.cur }
func (it *derivedTripleIterator) Err() error     { return it.err }
func (it *derivedTripleIterator) Close() error {
	if it.backend != nil {
		return it.backend.Close()
	}
	return nil
}

// LookupDerived implements "lookup_derived(pattern)": a lazy
// sequence of derived triples matching pattern, using the tightest
// available key prefix.
func (s *DerivedStore) LookupDerived(ctx context.Context, pattern Pattern) (TripleIterator, error) {
	ip, err := s.toIndexPattern(ctx, pattern)
	if err != nil {
		return nil, err
	}
	prefix, exact, usable := prefixFor(ip)
	if exact {
		val, gerr := s.backend.Exists(ctx, DerivedCF, prefix)
		if gerr != nil {
			return nil, wrapBackendError(gerr)
		}
		it := &derivedTripleIterator{dict: s.dict, pattern: ip}
		if val {
			it.single = []Triple{substitutedPatternAsTriple(pattern)}
		}
		return it, nil
	}
	var scanPrefix []byte
	if usable {
		scanPrefix = prefix
	}
	raw, err := s.backend.PrefixStream(ctx, DerivedCF, scanPrefix)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	return &derivedTripleIterator{backend: raw, pattern: ip, dict: s.dict}, nil
}

// substitutedPatternAsTriple converts an already-ground Pattern into a
// Triple directly, used by the exact-key LookupDerived fast path where
// the caller's pattern positions are themselves the answer.
func substitutedPatternAsTriple(p Pattern) Triple {
	return NewTriple(p.Subject, p.Predicate, p.Object)
}

// LookupAll implements "lookup_all(pattern)": the union of
// explicit and derived lookups. Duplicates are left to the caller; for
// set-based reasoning they do not affect correctness.
func (s *DerivedStore) LookupAll(ctx context.Context, pattern Pattern) ([]Triple, error) {
	var out []Triple
	if s.explicit != nil {
		ip, err := s.toIndexPattern(ctx, pattern)
		if err != nil {
			return nil, err
		}
		eit, err := s.explicit.Lookup(ctx, ip)
		if err != nil {
			return nil, wrapBackendError(err)
		}
		defer eit.Close()
		for eit.Next(ctx) {
			idt := eit.Triple()
			st, _ := s.dict.ToTerm(ctx, idt.Subject)
			pt, _ := s.dict.ToTerm(ctx, idt.Predicate)
			ot, _ := s.dict.ToTerm(ctx, idt.Object)
			out = append(out, NewTriple(st, pt, ot))
		}
		if err := eit.Err(); err != nil {
			return nil, wrapBackendError(err)
		}
	}
	dit, err := s.LookupDerived(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer dit.Close()
	for dit.Next(ctx) {
		out = append(out, dit.Triple())
	}
	if err := dit.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LookupSource selects which fact set a LookupFunc factory should
// search.
type LookupSource int

const (
	SourceExplicit LookupSource = iota
	SourceDerived
	SourceBoth
)

// NewLookupFunc builds a LookupFunc suitable for matcher.go/engine.go
// from this store, scoped to source.
func (s *DerivedStore) NewLookupFunc(source LookupSource) LookupFunc {
	return func(ctx context.Context, p Pattern) ([]Triple, error) {
		switch source {
		case SourceExplicit:
			return s.lookupExplicit(ctx, p)
		case SourceDerived:
			it, err := s.LookupDerived(ctx, p)
			if err != nil {
				return nil, err
			}
			defer it.Close()
			var out []Triple
			for it.Next(ctx) {
				out = append(out, it.Triple())
			}
			return out, it.Err()
		default:
			return s.LookupAll(ctx, p)
		}
	}
}

func (s *DerivedStore) lookupExplicit(ctx context.Context, p Pattern) ([]Triple, error) {
	if s.explicit == nil {
		return nil, nil
	}
	ip, err := s.toIndexPattern(ctx, p)
	if err != nil {
		return nil, err
	}
	it, err := s.explicit.Lookup(ctx, ip)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	defer it.Close()
	var out []Triple
	for it.Next(ctx) {
		idt := it.Triple()
		st, _ := s.dict.ToTerm(ctx, idt.Subject)
		pt, _ := s.dict.ToTerm(ctx, idt.Predicate)
		ot, _ := s.dict.ToTerm(ctx, idt.Object)
		out = append(out, NewTriple(st, pt, ot))
	}
	return out, it.Err()
}

// NewStoreFunc builds a StoreFunc suitable for engine.go from this
// store: new derived facts are written via InsertDerived.
func (s *DerivedStore) NewStoreFunc() StoreFunc {
	return func(ctx context.Context, facts []Triple) error {
		return s.InsertDerived(ctx, facts)
	}
}
