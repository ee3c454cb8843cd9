package reason

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// defaultMaxBackwardDepth bounds the backward dependency trace.
const defaultMaxBackwardDepth = 100

// defaultDeleteBindingLimit bounds the forward re-derivation check's
// per-rule join size, independent of and typically tighter than
// materialize's own per-task limits since a single deletion call may
// re-check many candidate facts.
const defaultDeleteBindingLimit = 10000

// defaultDeleteChunkSize is the default batch size for bulk deletion
// ("chunking (default 1 000)").
const defaultDeleteChunkSize = 1000

// DeleteStats reports what a deletion actually did. TraceDepth and
// FactsExamined describe the backward phase, for observability.
type DeleteStats struct {
	ExplicitDeleted         int
	DerivedDeleted          int
	DerivedKept             int
	PotentiallyInvalidCount int
	TraceDepth              int
	FactsExamined           int
	DurationMs              int64
}

// DeleteOptions configures backward/forward deletion.
type DeleteOptions struct {
	MaxBackwardDepth int // default 100
	BindingLimit     int // default 10000
	ChunkSize        int // default 1000 (bulk only)
}

func (o DeleteOptions) normalize() DeleteOptions {
	out := o
	if out.MaxBackwardDepth <= 0 {
		out.MaxBackwardDepth = defaultMaxBackwardDepth
	}
	if out.BindingLimit <= 0 {
		out.BindingLimit = defaultDeleteBindingLimit
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = defaultDeleteChunkSize
	}
	return out
}

// boundedEvaluate implements a full (non-delta) join of r's body against
// lookupFn, capped at bindingLimit total binding-extension steps. Unlike
// ApplyRuleDelta, every body pattern is matched against lookupFn — there
// is no distinguished delta position, because this is re-evaluating
// whether r could derive its head from scratch against a hypothetical
// fact set, not incrementally extending a prior materialization.
func boundedEvaluate(ctx context.Context, lookupFn LookupFunc, r Rule, bindingLimit int) ([]Triple, error) {
	if r.Name == "eq-ref" {
		return nil, nil
	}
	bodyPatterns := r.BodyPatterns()
	if len(bodyPatterns) == 0 {
		return nil, nil
	}

	bindings := []Binding{NewBinding()}
	total := 1
	for _, p := range bodyPatterns {
		if len(bindings) == 0 {
			break
		}
		candidates, err := lookupFn(ctx, p)
		if err != nil {
			return nil, wrapBackendError(err)
		}
		bindings = extendBindings(p, candidates, bindings)
		total += len(bindings)
		if total > bindingLimit {
			return nil, newError(ErrBindingLimitExceeded, "delete: rule %q re-derivation exceeded %d bindings", r.Name, bindingLimit)
		}
	}

	results := make(map[string]Triple)
	for _, b := range bindings {
		if !EvaluateConditions(r, b) {
			continue
		}
		head := substitutePattern(r.Head, b)
		if !head.Ground() {
			continue
		}
		t := NewTriple(head.Subject, head.Predicate, head.Object)
		results[t.String()] = t
	}
	out := make([]Triple, 0, len(results))
	for _, t := range results {
		out = append(out, t)
	}
	return out, nil
}

// reDerivable reports whether target is derivable by any rule in rules
// against lookupFn. A rule whose join blows past the binding ceiling is
// treated as unable to re-derive the target (conservative: the fact may
// be over-deleted, never incorrectly retained) rather than failing the
// whole deletion.
func reDerivable(ctx context.Context, lookupFn LookupFunc, rules []Rule, target Triple, bindingLimit int) (bool, error) {
	for _, r := range rules {
		out, err := boundedEvaluate(ctx, lookupFn, r, bindingLimit)
		if err != nil {
			if kind, ok := KindOf(err); ok && kind == ErrBindingLimitExceeded {
				continue
			}
			return false, err
		}
		for _, t := range out {
			if t.Equal(target) {
				return true, nil
			}
		}
	}
	return false, nil
}

// traceResult carries the backward phase's output plus its
// observability counters.
type traceResult struct {
	potentiallyInvalid []Triple
	traceDepth         int
	factsExamined      int
}

// backwardTrace implements the backward BFS: starting from the
// triples about to be deleted, find every currently-derived fact that
// could have been produced by a rule firing in which at least one body
// pattern matched something already in the trace frontier, transitively.
// The trace halts when the frontier drains or maxDepth hops have run;
// hitting the depth bound is not an error — facts beyond it simply stay
// out of potentially_invalid, and the forward phase's conservatism
// covers the rest.
func backwardTrace(ctx context.Context, lookupFn LookupFunc, derived *DerivedStore, rules []Rule, deleted []Triple, maxDepth int) (traceResult, error) {
	deletedSet := newTripleSet(deleted)
	potential := make(tripleSet)
	frontier := deleted
	res := traceResult{}

	for depth := 0; len(frontier) > 0 && depth < maxDepth; depth++ {
		res.traceDepth = depth + 1
		next := make(tripleSet)
		for _, r := range rules {
			out, err := ApplyRuleDelta(ctx, lookupFn, r, frontier)
			if err != nil {
				return res, err
			}
			res.factsExamined += len(out)
			for _, t := range out {
				if potential.contains(t) || deletedSet.contains(t) {
					continue
				}
				isDerived, err := derived.DerivedExists(ctx, t)
				if err != nil {
					return res, err
				}
				if !isDerived {
					continue
				}
				potential.add(t)
				next.add(t)
			}
		}
		frontier = next.slice()
	}
	res.potentiallyInvalid = potential.slice()
	return res, nil
}

// forwardRederive implements the forward re-derivation phase: each
// candidate in potentiallyInvalid is checked for re-derivability against
// the set of facts that survives subtracting the deleted and still-
// unresolved facts (and the candidate itself, to block self-
// justification): valid = (all − deleted − unresolved) ∪ keep_so_far −
// {fact}. Because keep_so_far is simply the subset of unresolved already
// moved out, the formula reduces in code to "everything lookupFn would
// return, except deleted, still-unresolved, and the candidate itself" —
// iterated to a fixpoint since resolving one fact as valid can unblock
// another's re-derivation.
func forwardRederive(ctx context.Context, lookupFn LookupFunc, rules []Rule, deleted []Triple, potentiallyInvalid []Triple, bindingLimit int) (kept []Triple, trulyDeleted []Triple, err error) {
	deletedSet := newTripleSet(deleted)
	unresolved := make([]Triple, len(potentiallyInvalid))
	copy(unresolved, potentiallyInvalid)
	var keepSoFar []Triple

	for {
		unresolvedSet := newTripleSet(unresolved)
		changed := false
		var stillUnresolved []Triple

		for _, f := range unresolved {
			excluded := deletedSet.union(unresolvedSet)
			validLookup := func(ctx context.Context, p Pattern) ([]Triple, error) {
				raw, err := lookupFn(ctx, p)
				if err != nil {
					return nil, err
				}
				out := make([]Triple, 0, len(raw))
				for _, t := range raw {
					if excluded.contains(t) || t.Equal(f) {
						continue
					}
					out = append(out, t)
				}
				return out, nil
			}
			ok, rerr := reDerivable(ctx, validLookup, rules, f, bindingLimit)
			if rerr != nil {
				return nil, nil, rerr
			}
			if ok {
				keepSoFar = append(keepSoFar, f)
				changed = true
			} else {
				stillUnresolved = append(stillUnresolved, f)
			}
		}

		unresolved = stillUnresolved
		if !changed || len(unresolved) == 0 {
			break
		}
	}
	return keepSoFar, unresolved, nil
}

// partitionDeleteRequest splits toDelete into the subset that is
// present in the explicit index (to be removed from there) and the
// subset that is not (necessarily a derived-only fact the caller asked
// to delete directly, to be folded into the derived-store delete set
// alongside whatever the forward-rederive phase separately invalidates).
func partitionDeleteRequest(ctx context.Context, explicit TripleIndex, dict Dictionary, toDelete []Triple) (explicitTriples []Triple, explicitIDs []IDTriple, derivedRequested []Triple, err error) {
	idTriples, err := toIDTriples(ctx, dict, toDelete)
	if err != nil {
		return nil, nil, nil, err
	}
	for i, t := range toDelete {
		exists, err := explicit.TripleExists(ctx, idTriples[i])
		if err != nil {
			return nil, nil, nil, wrapBackendError(err)
		}
		if exists {
			explicitTriples = append(explicitTriples, t)
			explicitIDs = append(explicitIDs, idTriples[i])
		} else {
			derivedRequested = append(derivedRequested, t)
		}
	}
	return explicitTriples, explicitIDs, derivedRequested, nil
}

// DeleteWithReasoning implements the full backward/forward deletion
// algorithm for a single batch of removed triples, which may name
// explicit facts, derived-only facts, or a mix of both: trace backward
// to find every derived fact that might depend on them, check forward
// whether each still holds some other way, and physically remove the
// explicit subset from the explicit index plus the union of the
// originally-derived-requested subset and whatever the forward phase
// could not re-derive from the derived store.
func DeleteWithReasoning(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, rules []Rule, toDelete []Triple, opts DeleteOptions, tel *Telemetry) (DeleteStats, error) {
	o := opts.normalize()
	start := time.Now()
	telStart := tel.DeleteStart()
	var stats DeleteStats

	if len(toDelete) == 0 {
		return stats, nil
	}

	explicitTriples, explicitIDs, derivedRequested, err := partitionDeleteRequest(ctx, explicit, dict, toDelete)
	if err != nil {
		return stats, err
	}

	lookupFn := derived.NewLookupFunc(SourceBoth)

	trace, err := backwardTrace(ctx, lookupFn, derived, rules, toDelete, o.MaxBackwardDepth)
	if err != nil {
		return stats, err
	}
	stats.PotentiallyInvalidCount = len(trace.potentiallyInvalid)
	stats.TraceDepth = trace.traceDepth
	stats.FactsExamined = trace.factsExamined

	kept, trulyDeleted, err := forwardRederive(ctx, lookupFn, rules, toDelete, trace.potentiallyInvalid, o.BindingLimit)
	if err != nil {
		return stats, err
	}
	stats.DerivedKept = len(kept)

	if len(explicitIDs) > 0 {
		if err := explicit.DeleteTriples(ctx, explicitIDs); err != nil {
			return stats, wrapBackendError(err)
		}
	}
	stats.ExplicitDeleted = len(explicitTriples)

	derivedToDelete := make([]Triple, 0, len(trulyDeleted)+len(derivedRequested))
	derivedToDelete = append(derivedToDelete, derivedRequested...)
	derivedToDelete = append(derivedToDelete, trulyDeleted...)
	if len(derivedToDelete) > 0 {
		if err := derived.DeleteDerived(ctx, derivedToDelete); err != nil {
			return stats, err
		}
	}
	stats.DerivedDeleted = len(derivedToDelete)

	stats.DurationMs = time.Since(start).Milliseconds()
	tel.DeleteStop(telStart, stats)
	return stats, nil
}

// BulkDelete implements the bulk variant: toDelete is processed in
// chunks (default 1000) so a single call removing a very large number of
// facts does not hold one gigantic backward-trace frontier in memory at
// once. Per-chunk errors are aggregated with go-multierror rather than
// aborting the remaining chunks, an aggregate-and-continue idiom for
// batch operations.
func BulkDelete(ctx context.Context, explicit TripleIndex, dict Dictionary, derived *DerivedStore, rules []Rule, toDelete []Triple, opts DeleteOptions, tel *Telemetry) (DeleteStats, error) {
	o := opts.normalize()
	var total DeleteStats
	var errs *multierror.Error

	for start := 0; start < len(toDelete); start += o.ChunkSize {
		end := start + o.ChunkSize
		if end > len(toDelete) {
			end = len(toDelete)
		}
		chunk := toDelete[start:end]
		stats, err := DeleteWithReasoning(ctx, explicit, dict, derived, rules, chunk, opts, tel)
		total.ExplicitDeleted += stats.ExplicitDeleted
		total.DerivedDeleted += stats.DerivedDeleted
		total.DerivedKept += stats.DerivedKept
		total.PotentiallyInvalidCount += stats.PotentiallyInvalidCount
		total.FactsExamined += stats.FactsExamined
		if stats.TraceDepth > total.TraceDepth {
			total.TraceDepth = stats.TraceDepth
		}
		total.DurationMs += stats.DurationMs
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return total, errs.ErrorOrNil()
}
