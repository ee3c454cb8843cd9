package reason

import (
	"context"

	"github.com/gitrdm/owlreasoner/internal/worker"
)

// parallelTranslationThreshold is the minimum batch size before
// filterNovelConcurrency and toIDTriplesConcurrency bother spinning up a
// worker pool at all — below it the
// pool setup/teardown costs more than the sequential loop it would replace.
const parallelTranslationThreshold = 64

// AddResult reports what Add actually did.
type AddResult struct {
	// NovelCount is the number of input triples that were not already
	// present as either explicit or derived facts, and were therefore
	// inserted and fed to materialization as the initial delta.
	NovelCount int
	Stats      Stats
}

// tripleExists checks a Term-level triple against both the explicit
// index and the derived store, translating through dict.
func tripleExists(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, t Triple) (bool, error) {
	sid, err := dict.ToID(ctx, t.Subject)
	if err != nil {
		return false, wrapBackendError(err)
	}
	pid, err := dict.ToID(ctx, t.Predicate)
	if err != nil {
		return false, wrapBackendError(err)
	}
	oid, err := dict.ToID(ctx, t.Object)
	if err != nil {
		return false, wrapBackendError(err)
	}
	ok, err := explicit.TripleExists(ctx, IDTriple{Subject: sid, Predicate: pid, Object: oid})
	if err != nil {
		return false, wrapBackendError(err)
	}
	if ok {
		return true, nil
	}
	if derived == nil {
		return false, nil
	}
	return derived.DerivedExists(ctx, t)
}

// filterNovel implements the "filter novel triples" step: the subset
// of triples not already present as either explicit or derived facts.
// Deduplication is sequential (a plain seen-set, cheap and order-
// preserving). filterNovel checks existence one triple at a time;
// filterNovelConcurrency, given a concurrency above 1 and a large
// enough batch, fans the existence check out across a bounded worker
// pool instead.
func filterNovel(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, triples []Triple) ([]Triple, error) {
	return filterNovelConcurrency(ctx, explicit, dict, derived, triples, 0)
}

func filterNovelConcurrency(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, triples []Triple, concurrency int) ([]Triple, error) {
	unique := make([]Triple, 0, len(triples))
	seen := make(map[string]bool, len(triples))
	for _, t := range triples {
		key := t.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, t)
	}

	if concurrency <= 1 || len(unique) < parallelTranslationThreshold {
		out := make([]Triple, 0, len(unique))
		for _, t := range unique {
			exists, err := tripleExists(ctx, explicit, dict, derived, t)
			if err != nil {
				return nil, err
			}
			if !exists {
				out = append(out, t)
			}
		}
		return out, nil
	}

	exists := make([]bool, len(unique))
	pool := worker.New(concurrency)
	defer pool.Close()
	err := pool.RunAll(ctx, len(unique), func(ctx context.Context, i int) error {
		ok, err := tripleExists(ctx, explicit, dict, derived, unique[i])
		if err != nil {
			return err
		}
		exists[i] = ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Triple, 0, len(unique))
	for i, t := range unique {
		if !exists[i] {
			out = append(out, t)
		}
	}
	return out, nil
}

func toIDTriples(ctx context.Context, dict Dictionary, triples []Triple) ([]IDTriple, error) {
	return toIDTriplesConcurrency(ctx, dict, triples, 0)
}

// toIDTriplesConcurrency translates each Term-level triple through dict
// independently, so for large batches the translation runs across a
// bounded worker pool rather than one dictionary round-trip at a time.
func toIDTriplesConcurrency(ctx context.Context, dict Dictionary, triples []Triple, concurrency int) ([]IDTriple, error) {
	if concurrency <= 1 || len(triples) < parallelTranslationThreshold {
		out := make([]IDTriple, 0, len(triples))
		for _, t := range triples {
			sid, err := dict.ToID(ctx, t.Subject)
			if err != nil {
				return nil, wrapBackendError(err)
			}
			pid, err := dict.ToID(ctx, t.Predicate)
			if err != nil {
				return nil, wrapBackendError(err)
			}
			oid, err := dict.ToID(ctx, t.Object)
			if err != nil {
				return nil, wrapBackendError(err)
			}
			out = append(out, IDTriple{Subject: sid, Predicate: pid, Object: oid})
		}
		return out, nil
	}

	out := make([]IDTriple, len(triples))
	pool := worker.New(concurrency)
	defer pool.Close()
	err := pool.RunAll(ctx, len(triples), func(ctx context.Context, i int) error {
		t := triples[i]
		sid, err := dict.ToID(ctx, t.Subject)
		if err != nil {
			return wrapBackendError(err)
		}
		pid, err := dict.ToID(ctx, t.Predicate)
		if err != nil {
			return wrapBackendError(err)
		}
		oid, err := dict.ToID(ctx, t.Object)
		if err != nil {
			return wrapBackendError(err)
		}
		out[i] = IDTriple{Subject: sid, Predicate: pid, Object: oid}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Add implements "add": filter the input to novel triples, insert
// them as explicit facts, then run materialization seeded with exactly
// those novel triples as the initial delta — the rest of the existing
// fact set is consulted through lookupFn but never re-derived from
// scratch.
func Add(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, rules []Rule, triples []Triple, opts MaterializeOptions) (AddResult, error) {
	concurrency := 0
	if opts.Parallel {
		concurrency = opts.normalize().MaxConcurrency
	}

	novel, err := filterNovelConcurrency(ctx, explicit, dict, derived, triples, concurrency)
	if err != nil {
		return AddResult{}, err
	}
	if len(novel) == 0 {
		return AddResult{}, nil
	}

	idTriples, err := toIDTriplesConcurrency(ctx, dict, novel, concurrency)
	if err != nil {
		return AddResult{}, err
	}
	if err := explicit.InsertTriples(ctx, idTriples); err != nil {
		return AddResult{}, wrapBackendError(err)
	}

	lookupFn := derived.NewLookupFunc(SourceBoth)
	storeFn := derived.NewStoreFunc()
	strata := SingleStratum(rules)

	// Seed the fixpoint's known-fact set from the real pre-existing
	// closure (which at this point already includes the novel explicit
	// triples) so the run's counters report only genuinely new
	// derivations, not pre-existing facts the delta happens to re-derive.
	existing, err := lookupFn(ctx, allTriplesPattern())
	if err != nil {
		return AddResult{NovelCount: len(novel)}, err
	}

	stats, err := MaterializeDelta(ctx, lookupFn, storeFn, strata, existing, novel, opts)
	if err != nil {
		return AddResult{NovelCount: len(novel), Stats: stats}, err
	}
	return AddResult{NovelCount: len(novel), Stats: stats}, nil
}

// PreviewResult is the hypothetical outcome of a preview_add:
// the facts that would be derived, without touching the backend.
type PreviewResult struct {
	NovelCount int
	Derived    []Triple
	Stats      Stats
}

// overlayLookup layers an ephemeral, in-memory tripleSet over a base
// LookupFunc so materialization can run entirely against hypothetical
// state.
func overlayLookup(base LookupFunc, overlay tripleSet) LookupFunc {
	return func(ctx context.Context, p Pattern) ([]Triple, error) {
		fromBase, err := base(ctx, p)
		if err != nil {
			return nil, err
		}
		out := newTripleSet(fromBase)
		for _, t := range overlay {
			if MatchesTriple(p, t) {
				out.add(t)
			}
		}
		return out.slice(), nil
	}
}

// PreviewAdd implements "preview_add": computes what Add would
// derive, without inserting the input triples into the explicit index
// or writing anything to the derived store. Materialization runs
// against an ephemeral overlay that starts out holding the novel input
// triples and accumulates derivations in memory only.
func PreviewAdd(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, rules []Rule, triples []Triple, opts MaterializeOptions) (PreviewResult, error) {
	concurrency := 0
	if opts.Parallel {
		concurrency = opts.normalize().MaxConcurrency
	}

	novel, err := filterNovelConcurrency(ctx, explicit, dict, derived, triples, concurrency)
	if err != nil {
		return PreviewResult{}, err
	}
	if len(novel) == 0 {
		return PreviewResult{}, nil
	}

	overlay := newTripleSet(novel)
	baseLookup := derived.NewLookupFunc(SourceBoth)
	lookupFn := overlayLookup(baseLookup, overlay)

	// The pre-existing closure is fetched through the base lookup, not
	// the overlay, so the hypothetical input triples stay out of it and
	// the fixpoint counts only what they would newly derive.
	existing, err := baseLookup(ctx, allTriplesPattern())
	if err != nil {
		return PreviewResult{NovelCount: len(novel)}, err
	}

	produced := make(tripleSet)
	storeFn := func(ctx context.Context, facts []Triple) error {
		for _, f := range facts {
			overlay.add(f)
			produced.add(f)
		}
		return nil
	}

	strata := SingleStratum(rules)
	stats, err := MaterializeDelta(ctx, lookupFn, storeFn, strata, existing, novel, opts)
	if err != nil {
		return PreviewResult{NovelCount: len(novel), Stats: stats}, err
	}
	return PreviewResult{NovelCount: len(novel), Derived: produced.slice(), Stats: stats}, nil
}
