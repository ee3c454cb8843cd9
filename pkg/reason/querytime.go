package reason

import "context"

// EvaluationMode selects how a query is answered relative to the
// materialized closure: against the persisted derived store as-is,
// computed fully on the fly with nothing persisted, or a blend of the
// two. Eager forward-chaining materialization covers the common case,
// but a reasoning core that also wants to answer one-off queries
// against a fact set it
// has not (yet) fully materialized needs a lighter-weight path that
// reuses the exact same rule-evaluation machinery (matcher.go's
// ApplyRuleDelta via engine.go's Materialize) rather than duplicating it.
type EvaluationMode int

const (
	// ModeMaterialized trusts the persisted derived store to already
	// hold the full closure; the query is answered by a direct lookup.
	ModeMaterialized EvaluationMode = iota
	// ModeQueryTime ignores any persisted derived store entirely and
	// computes the closure from the explicit facts on the fly, in
	// memory, discarding it once the query is answered.
	ModeQueryTime
	// ModeHybrid answers from the persisted derived store, then tops up
	// with an ephemeral closure pass in case the persisted store is
	// stale relative to the current explicit facts, without writing the
	// top-up back.
	ModeHybrid
	// ModeNone performs no inference at all: queries are answered from
	// the explicit facts alone.
	ModeNone
)

func (m EvaluationMode) String() string {
	switch m {
	case ModeQueryTime:
		return "query_time"
	case ModeHybrid:
		return "hybrid"
	case ModeNone:
		return "none"
	default:
		return "materialized"
	}
}

// patternsMayUnify reports whether two patterns could ever match the
// same ground triple: at each position, a variable is compatible with
// anything, and two constants must be equal.
func patternsMayUnify(a, b Pattern) bool {
	compat := func(x, y Term) bool {
		return x.IsVar() || y.IsVar() || x.Equal(y)
	}
	return compat(a.Subject, b.Subject) &&
		compat(a.Predicate, b.Predicate) &&
		compat(a.Object, b.Object)
}

// PartitionHybrid splits rules into the subset cheap enough to
// materialize eagerly and the subset deferred to query-time evaluation.
// A rule is deferred when it is recursive — its head could feed back
// into its own body, so its closure may take many fixpoint rounds —
// detected as a variable head predicate (which can derive any triple
// shape) or a body pattern the head could unify with. Everything else
// derives in a single pass and is safe to materialize up front.
func PartitionHybrid(rules []Rule) (materialize []Rule, deferred []Rule) {
	for _, r := range rules {
		recursive := r.Head.Predicate.IsVar()
		if !recursive {
			for _, p := range r.BodyPatterns() {
				if patternsMayUnify(r.Head, p) {
					recursive = true
					break
				}
			}
		}
		if recursive {
			deferred = append(deferred, r)
		} else {
			materialize = append(materialize, r)
		}
	}
	return materialize, deferred
}

// allTriplesPattern is the fully-unbound pattern used to request a
// complete enumeration from a LookupFunc.
func allTriplesPattern() Pattern {
	return NewPattern(Var("_qs"), Var("_qp"), Var("_qo"))
}

// ephemeralClosure runs materialization entirely in memory: seed is fed
// as the initial delta, lookupFn supplies the base fact set, and
// whatever Materialize derives is accumulated into an overlay that is
// returned as a plain tripleSet rather than persisted anywhere. This is
// the shared engine behind both ModeQueryTime and ModeHybrid's top-up
// pass; it calls straight into engine.go's Materialize, which in turn
// calls matcher.go's ApplyRuleDelta, so query-time evaluation and
// eager materialization share one code path rather than two parallel
// implementations.
func ephemeralClosure(ctx context.Context, lookupFn LookupFunc, rules []Rule, seed []Triple, opts MaterializeOptions) (tripleSet, Stats, error) {
	overlay := newTripleSet(seed)
	overlayLookupFn := overlayLookup(lookupFn, overlay)
	storeFn := func(ctx context.Context, facts []Triple) error {
		for _, f := range facts {
			overlay.add(f)
		}
		return nil
	}
	strata := SingleStratum(rules)
	var stats Stats
	var err error
	if opts.Parallel {
		stats, err = MaterializeParallel(ctx, overlayLookupFn, storeFn, strata, seed, opts)
	} else {
		stats, err = Materialize(ctx, overlayLookupFn, storeFn, strata, seed, opts)
	}
	return overlay, stats, err
}

// Query answers pattern under the given evaluation mode, returning the
// matching triples and the materialization statistics of any ephemeral
// work performed (zero-valued for ModeMaterialized, which does none).
func Query(ctx context.Context, pattern Pattern, explicitLookup LookupFunc, derived *DerivedStore, rules []Rule, mode EvaluationMode, opts MaterializeOptions) ([]Triple, Stats, error) {
	switch mode {
	case ModeQueryTime:
		seed, err := explicitLookup(ctx, allTriplesPattern())
		if err != nil {
			return nil, Stats{}, err
		}
		overlay, stats, err := ephemeralClosure(ctx, explicitLookup, rules, seed, opts)
		if err != nil {
			return nil, stats, err
		}
		return FilterMatching(pattern, overlay.slice()), stats, nil

	case ModeHybrid:
		persistedLookup := derived.NewLookupFunc(SourceBoth)
		seed, err := persistedLookup(ctx, allTriplesPattern())
		if err != nil {
			return nil, Stats{}, err
		}
		overlay, stats, err := ephemeralClosure(ctx, persistedLookup, rules, seed, opts)
		if err != nil {
			return nil, stats, err
		}
		return FilterMatching(pattern, overlay.slice()), stats, nil

	case ModeNone:
		out, err := explicitLookup(ctx, pattern)
		return out, Stats{}, err

	default: // ModeMaterialized
		out, err := derived.LookupAll(ctx, pattern)
		return out, Stats{}, err
	}
}
