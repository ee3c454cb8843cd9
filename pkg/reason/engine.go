package reason

import (
	"context"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// StoreFunc persists a set of new facts.
type StoreFunc func(ctx context.Context, facts []Triple) error

// Stratum is an ordered set of rules that may be evaluated together.
// OWL 2 RL has no negation, so a compiled rule
// set normally produces a single stratum at level 0; the engine accepts
// a list to permit future extension.
type Stratum struct {
	Level int
	Rules []Rule
}

// SingleStratum wraps rules into the one stratum an OWL 2 RL/RDFS rule
// set needs, since it has no negation and therefore no stratification.
func SingleStratum(rules []Rule) []Stratum {
	return []Stratum{{Level: 0, Rules: rules}}
}

// MaterializeOptions is the exhaustive option set of the table.
type MaterializeOptions struct {
	MaxIterations  int           // default 1000
	MaxFacts       int           // default 10_000_000
	Parallel       bool          // default false
	MaxConcurrency int           // default #cores
	TaskTimeout    time.Duration // default 60s
	ValidateRules  bool          // default false
	EmitTelemetry  bool          // zero value false: materialize events are sent only when true and Telemetry is non-nil
	Logger         hclog.Logger
	Telemetry      *Telemetry
}

func (o MaterializeOptions) normalize() MaterializeOptions {
	out := o
	if out.MaxIterations <= 0 {
		out.MaxIterations = 1000
	}
	if out.MaxFacts <= 0 {
		out.MaxFacts = 10_000_000
	}
	if out.MaxConcurrency <= 0 {
		out.MaxConcurrency = runtime.NumCPU()
	}
	if out.TaskTimeout <= 0 {
		out.TaskTimeout = 60 * time.Second
	}
	if out.Logger == nil {
		out.Logger = hclog.NewNullLogger()
	}
	return out
}

// Stats reports the counters the fixpoint loop state tracks.
type Stats struct {
	Iterations              int
	TotalDerived            int
	DerivationsPerIteration []int
	RulesApplied            int
}

// tripleSet is a simple set of triples keyed by their string form;
// triples are small immutable value structs so hashing the string form
// is adequate and keeps the engine free of a bespoke term-hashing
// scheme.
type tripleSet map[string]Triple

func newTripleSet(triples ...[]Triple) tripleSet {
	s := make(tripleSet)
	for _, ts := range triples {
		for _, t := range ts {
			s[t.String()] = t
		}
	}
	return s
}

func (s tripleSet) add(t Triple)           { s[t.String()] = t }
func (s tripleSet) contains(t Triple) bool { _, ok := s[t.String()]; return ok }
func (s tripleSet) slice() []Triple {
	out := make([]Triple, 0, len(s))
	for _, t := range s {
		out = append(out, t)
	}
	return out
}

func (s tripleSet) union(other tripleSet) tripleSet {
	out := make(tripleSet, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (s tripleSet) minus(other tripleSet) tripleSet {
	out := make(tripleSet)
	for k, v := range s {
		if _, ok := other[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// ValidateRules checks the safety invariant over every rule,
// returning an ErrInvalidRule for the first violation found.
func ValidateRules(rules []Rule) error {
	for _, r := range rules {
		if !r.Safe() {
			return newError(ErrInvalidRule, "rule %q is unsafe: head variable not bound in body", r.Name)
		}
	}
	return nil
}

// Materialize implements the fixpoint loop (sequential rule
// application within a stratum). initialFacts seeds both the known fact
// set and the first iteration's delta, which is the right reading for a
// from-scratch materialization where nothing was derived yet.
func Materialize(ctx context.Context, lookupFn LookupFunc, storeFn StoreFunc, strata []Stratum, initialFacts []Triple, opts MaterializeOptions) (Stats, error) {
	return materialize(ctx, lookupFn, storeFn, strata, initialFacts, initialFacts, opts, false)
}

// MaterializeParallel implements "materialize_parallel" — the
// same fixpoint loop, but with parallel=true so rule evaluations within
// a stratum containing more than one rule run concurrently.
func MaterializeParallel(ctx context.Context, lookupFn LookupFunc, storeFn StoreFunc, strata []Stratum, initialFacts []Triple, opts MaterializeOptions) (Stats, error) {
	opts.Parallel = true
	return materialize(ctx, lookupFn, storeFn, strata, initialFacts, initialFacts, opts, true)
}

// MaterializeDelta runs the same fixpoint with the pre-existing closure
// and the delta seeded separately: existing holds every fact lookupFn
// can already see, delta only the novel triples driving the first
// iteration. The stored result is identical to seeding with delta alone
// (the per-iteration subtraction and the idempotent store absorb the
// difference), but the counters then report only genuinely new
// derivations — without the split, an incremental run would recount any
// pre-existing fact the delta happens to re-derive.
func MaterializeDelta(ctx context.Context, lookupFn LookupFunc, storeFn StoreFunc, strata []Stratum, existing, delta []Triple, opts MaterializeOptions) (Stats, error) {
	return materialize(ctx, lookupFn, storeFn, strata, existing, delta, opts, opts.Parallel)
}

func materialize(ctx context.Context, lookupFn LookupFunc, storeFn StoreFunc, strata []Stratum, existing, initialDelta []Triple, opts MaterializeOptions, parallel bool) (Stats, error) {
	o := opts.normalize()
	var stats Stats

	tel := o.Telemetry
	if !o.EmitTelemetry {
		tel = nil
	}
	start := tel.MaterializeStart(parallel)
	defer func() { tel.MaterializeStop(start, stats) }()

	if o.ValidateRules {
		for _, st := range strata {
			if err := ValidateRules(st.Rules); err != nil {
				return stats, err
			}
		}
	}

	allFacts := newTripleSet(existing, initialDelta)
	delta := initialDelta

	for {
		if len(delta) == 0 {
			return stats, nil
		}
		if stats.Iterations >= o.MaxIterations {
			return stats, newError(ErrMaxIterationsExceeded, "materialize: exceeded %d iterations", o.MaxIterations)
		}
		if len(allFacts) >= o.MaxFacts {
			return stats, newError(ErrMaxFactsExceeded, "materialize: exceeded %d facts", o.MaxFacts)
		}

		iterationUnion := make(tripleSet)
		rulesAppliedThisIteration := 0
		stratumExisting := allFacts

		for _, st := range strata {
			var stratumDerivations tripleSet
			var firing int
			var err error
			if o.Parallel && len(st.Rules) > 1 {
				stratumDerivations, firing, err = applyStratumParallel(ctx, lookupFn, st.Rules, delta, stratumExisting, o)
			} else {
				stratumDerivations, firing, err = applyStratumSequential(ctx, lookupFn, st.Rules, delta, stratumExisting)
			}
			if err != nil {
				return stats, err
			}
			rulesAppliedThisIteration += firing
			iterationUnion = iterationUnion.union(stratumDerivations)
			// Subsequent strata see this stratum's derivations as part of
			// all_existing.
			stratumExisting = stratumExisting.union(stratumDerivations)
		}

		newDerivations := iterationUnion.minus(allFacts)
		if len(newDerivations) == 0 {
			return stats, nil
		}

		newSlice := newDerivations.slice()
		if err := storeFn(ctx, newSlice); err != nil {
			return stats, wrapBackendError(err)
		}

		allFacts = allFacts.union(newDerivations)
		delta = newSlice
		stats.Iterations++
		stats.TotalDerived += len(newDerivations)
		stats.DerivationsPerIteration = append(stats.DerivationsPerIteration, len(newDerivations))
		stats.RulesApplied += rulesAppliedThisIteration
		tel.MaterializeIteration(stats.Iterations, len(newDerivations), rulesAppliedThisIteration)
	}
}

func allExistingLookup(base LookupFunc, extra tripleSet) LookupFunc {
	return func(ctx context.Context, p Pattern) ([]Triple, error) {
		fromBase, err := base(ctx, p)
		if err != nil {
			return nil, err
		}
		out := newTripleSet(fromBase)
		for _, t := range extra {
			if MatchesTriple(p, t) {
				out.add(t)
			}
		}
		return out.slice(), nil
	}
}

// applyStratumSequential applies every rule in order. Each rule's
// existing-fact lookup also sees the outputs of the rules applied
// before it in this iteration, so a later rule can join against a fact
// an earlier rule has just derived. It returns the union of every
// rule's output.
func applyStratumSequential(ctx context.Context, lookupFn LookupFunc, rules []Rule, delta []Triple, allExisting tripleSet) (tripleSet, int, error) {
	union := make(tripleSet)
	firing := 0
	for _, r := range rules {
		existingLookup := allExistingLookup(lookupFn, allExisting.union(union))
		out, err := ApplyRuleDelta(ctx, existingLookup, r, delta)
		if err != nil {
			return nil, 0, err
		}
		if len(out) > 0 {
			firing++
		}
		for _, t := range out {
			union.add(t)
		}
	}
	return union, firing, nil
}

// applyStratumParallel runs every rule in rules concurrently, bounded
// by opts.MaxConcurrency, merging by set union so the result is
// deterministic regardless of completion order. It uses golang.org/x/sync/errgroup so the first rule task to
// fail or time out cancels its siblings' contexts — exactly the
// "first-error / first-timeout cancellation of siblings" contract.
func applyStratumParallel(ctx context.Context, lookupFn LookupFunc, rules []Rule, delta []Triple, allExisting tripleSet, o MaterializeOptions) (tripleSet, int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.MaxConcurrency)

	results := make([][]Triple, len(rules))
	existingLookup := allExistingLookup(lookupFn, allExisting)

	for i, r := range rules {
		i, r := i, r
		g.Go(func() (err error) {
			taskCtx, cancel := context.WithTimeout(gctx, o.TaskTimeout)
			defer cancel()
			defer func() {
				if rec := recover(); rec != nil {
					err = newError(ErrTaskCrashed, "rule task %q panicked: %v", r.Name, rec)
				}
			}()
			out, aerr := ApplyRuleDelta(taskCtx, existingLookup, r, delta)
			if aerr != nil {
				if taskCtx.Err() == context.DeadlineExceeded {
					return newError(ErrTaskTimeout, "rule task %q exceeded %s", r.Name, o.TaskTimeout)
				}
				return aerr
			}
			if taskCtx.Err() == context.DeadlineExceeded {
				return newError(ErrTaskTimeout, "rule task %q exceeded %s", r.Name, o.TaskTimeout)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	union := make(tripleSet)
	firing := 0
	for _, out := range results {
		if len(out) > 0 {
			firing++
		}
		for _, t := range out {
			union.add(t)
		}
	}
	return union, firing, nil
}
