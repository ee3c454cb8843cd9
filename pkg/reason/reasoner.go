package reason

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ReasoningStatus names where a Reasoner sits in its lifecycle. A
// long-lived service embedding this package needs to know, at a
// glance, whether its last materialization is still trustworthy before
// answering a query against it, even though materialize/add/delete are
// each independently correct operations on their own.
type ReasoningStatus string

const (
	// StatusInitialized: Configure has run (rules compiled, TBox built)
	// but Materialize has not yet been called.
	StatusInitialized ReasoningStatus = "initialized"
	// StatusMaterialized: the derived store holds a full, current
	// closure under the compiled rule set.
	StatusMaterialized ReasoningStatus = "materialized"
	// StatusStale: a TBox-modifying triple was added or deleted since
	// the last materialization; the compiled rule set and TBox may no
	// longer reflect the schema. Recompile then Materialize to clear.
	StatusStale ReasoningStatus = "stale"
	// StatusError: the last operation failed; LastError holds the cause.
	StatusError ReasoningStatus = "error"
)

// queryAdapter satisfies QueryInterface over a LookupFunc, letting
// schema extraction and TBox construction run against whatever fact
// source a Reasoner was configured with.
type queryAdapter struct {
	lookup LookupFunc
}

func (q queryAdapter) Exists(ctx context.Context, pattern Pattern) (bool, error) {
	out, err := q.lookup(ctx, pattern)
	if err != nil {
		return false, err
	}
	return len(out) > 0, nil
}

func (q queryAdapter) Enumerate(ctx context.Context, pattern Pattern, limit int) ([]Triple, error) {
	out, err := q.lookup(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reasoner is the façade tying together rule compilation
// (compiler.go), the TBox cache (tbox.go), materialization (engine.go),
// and incremental maintenance (incremental.go, delete.go) into one
// stateful handle over a caller-supplied storage backend, triple index,
// and dictionary.
type Reasoner struct {
	mu sync.Mutex

	explicit TripleIndex
	dict     Dictionary
	derived  *DerivedStore

	ruleRegistry *Registry[*CompiledRuleSet]
	tboxRegistry *Registry[*TBox]

	compiled *CompiledRuleSet
	tbox     *TBox
	profile  Profile
	mode     EvaluationMode
	// deferred holds the rule subset ModeHybrid leaves to query-time
	// evaluation; empty in every other mode.
	deferred            []Rule
	status              ReasoningStatus
	lastErr             error
	lastMaterialization time.Time

	logger    hclog.Logger
	telemetry *Telemetry

	compilerOpts    CompilerOptions
	materializeOpts MaterializeOptions
	deleteOpts      DeleteOptions
}

// ReasonerConfig bundles the constructor arguments a Reasoner needs.
type ReasonerConfig struct {
	Backend  StorageBackend
	Explicit TripleIndex
	Dict     Dictionary

	Logger    hclog.Logger
	Telemetry *Telemetry

	CompilerOptions CompilerOptions
	Materialize     MaterializeOptions
	Delete          DeleteOptions
}

// NewReasoner constructs a Reasoner in StatusInitialized with empty
// compiled rules and TBox; call Configure before Materialize.
func NewReasoner(cfg ReasonerConfig) *Reasoner {
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Reasoner{
		explicit:        cfg.Explicit,
		dict:            cfg.Dict,
		derived:         NewDerivedStore(cfg.Backend, cfg.Dict, cfg.Explicit),
		ruleRegistry:    NewRegistry[*CompiledRuleSet](0),
		tboxRegistry:    NewRegistry[*TBox](0),
		status:          StatusInitialized,
		logger:          log,
		telemetry:       cfg.Telemetry,
		compilerOpts:    cfg.CompilerOptions,
		materializeOpts: cfg.Materialize,
		deleteOpts:      cfg.Delete,
	}
}

func (r *Reasoner) fail(err error) error {
	r.status = StatusError
	r.lastErr = err
	return err
}

// Configure implements "configure": extract schema info from the
// current fact set, compile the rule set for profile, build the TBox
// cache, and fix the reasoning mode. Safe to call again later (e.g.
// after StatusStale) to rebuild everything from the fact set's current
// shape.
func (r *Reasoner) Configure(ctx context.Context, profile Profile, mode EvaluationMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := queryAdapter{lookup: r.derived.NewLookupFunc(SourceBoth)}

	_, compiled, err := Compile(ctx, r.ruleRegistry, profile, nil, q, r.compilerOpts, r.telemetry)
	if err != nil {
		return r.fail(err)
	}

	tb, err := BuildTBox(ctx, q, defaultTBoxMaxIterations, defaultTBoxMaxProperties)
	if err != nil {
		return r.fail(err)
	}
	r.tboxRegistry.Store(tb.Version, tb)

	r.compiled = compiled
	r.tbox = tb
	r.profile = profile
	r.mode = mode
	r.deferred = nil
	if mode == ModeHybrid {
		_, r.deferred = PartitionHybrid(compiled.AllRules())
	}
	r.status = StatusInitialized
	r.lastErr = nil
	return nil
}

// activeRules returns the rule subset the configured mode materializes:
// everything for ModeMaterialized, the non-recursive subset for
// ModeHybrid, and nothing for ModeQueryTime/ModeNone (which never
// persist derivations).
func (r *Reasoner) activeRules() []Rule {
	switch r.mode {
	case ModeHybrid:
		mat, _ := PartitionHybrid(r.compiled.AllRules())
		return mat
	case ModeQueryTime, ModeNone:
		return nil
	default:
		return r.compiled.AllRules()
	}
}

func (r *Reasoner) requireConfigured() error {
	if r.compiled == nil {
		return newError(ErrNotFound, "reasoner: Configure must run before this operation")
	}
	return nil
}

// Materialize implements "materialize": run a full semi-naive
// fixpoint seeded from every current explicit triple, persisting
// derivations into the derived store.
func (r *Reasoner) Materialize(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return Stats{}, r.fail(err)
	}

	explicitLookup := r.derived.NewLookupFunc(SourceExplicit)
	seed, err := explicitLookup(ctx, allTriplesPattern())
	if err != nil {
		return Stats{}, r.fail(wrapBackendError(err))
	}

	lookupFn := r.derived.NewLookupFunc(SourceBoth)
	storeFn := r.derived.NewStoreFunc()
	strata := SingleStratum(r.activeRules())

	var stats Stats
	if r.materializeOpts.Parallel {
		stats, err = MaterializeParallel(ctx, lookupFn, storeFn, strata, seed, r.materializeOpts)
	} else {
		stats, err = Materialize(ctx, lookupFn, storeFn, strata, seed, r.materializeOpts)
	}
	if err != nil {
		return stats, r.fail(err)
	}
	r.status = StatusMaterialized
	r.lastErr = nil
	r.lastMaterialization = time.Now()
	return stats, nil
}

// Add implements "add": insert triples as explicit facts and
// incrementally extend the materialized closure. If any input triple is
// TBox-modifying, the reasoner drops to StatusStale afterward —
// the compiled rule set and TBox no longer necessarily reflect the
// schema, and Configure should run again before the result can be
// trusted as complete.
func (r *Reasoner) Add(ctx context.Context, triples []Triple) (AddResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return AddResult{}, r.fail(err)
	}

	result, err := Add(ctx, r.explicit, r.dict, r.derived, r.activeRules(), triples, r.materializeOpts)
	if err != nil {
		return result, r.fail(err)
	}

	if r.tboxModifying(triples) {
		r.status = StatusStale
	} else if r.status != StatusStale {
		r.status = StatusMaterialized
	}
	r.lastErr = nil
	r.lastMaterialization = time.Now()
	return result, nil
}

// Delete implements "delete": backward/forward-delete triples and
// their dependent derivations. Like Add, a TBox-modifying deletion
// drops status to StatusStale.
func (r *Reasoner) Delete(ctx context.Context, triples []Triple) (DeleteStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return DeleteStats{}, r.fail(err)
	}

	stats, err := DeleteWithReasoning(ctx, r.explicit, r.dict, r.derived, r.activeRules(), triples, r.deleteOpts, r.telemetry)
	if err != nil {
		return stats, r.fail(err)
	}

	if r.tboxModifying(triples) {
		r.status = StatusStale
	} else if r.status != StatusStale {
		r.status = StatusMaterialized
	}
	r.lastErr = nil
	r.lastMaterialization = time.Now()
	return stats, nil
}

// PreviewAdd implements "preview_add": a read-only forecast of Add's
// derivations, leaving status and all stores untouched.
func (r *Reasoner) PreviewAdd(ctx context.Context, triples []Triple) (PreviewResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return PreviewResult{}, err
	}
	return PreviewAdd(ctx, r.explicit, r.dict, r.derived, r.activeRules(), triples, r.materializeOpts)
}

// PreviewDelete implements "preview_delete": runs the same backward/
// forward analysis DeleteWithReasoning would, without performing the
// physical deletes.
func (r *Reasoner) PreviewDelete(ctx context.Context, triples []Triple) (DeleteStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return DeleteStats{}, err
	}
	if len(triples) == 0 {
		return DeleteStats{}, nil
	}

	explicitTriples, _, derivedRequested, err := partitionDeleteRequest(ctx, r.explicit, r.dict, triples)
	if err != nil {
		return DeleteStats{}, err
	}

	lookupFn := r.derived.NewLookupFunc(SourceBoth)
	rules := r.activeRules()
	trace, err := backwardTrace(ctx, lookupFn, r.derived, rules, triples, r.deleteOpts.normalize().MaxBackwardDepth)
	if err != nil {
		return DeleteStats{}, err
	}
	kept, trulyDeleted, err := forwardRederive(ctx, lookupFn, rules, triples, trace.potentiallyInvalid, r.deleteOpts.normalize().BindingLimit)
	if err != nil {
		return DeleteStats{}, err
	}
	return DeleteStats{
		ExplicitDeleted:         len(explicitTriples),
		DerivedDeleted:          len(derivedRequested) + len(trulyDeleted),
		DerivedKept:             len(kept),
		PotentiallyInvalidCount: len(trace.potentiallyInvalid),
		TraceDepth:              trace.traceDepth,
		FactsExamined:           trace.factsExamined,
	}, nil
}

// Query answers pattern under the configured reasoning mode, using this
// reasoner's compiled rules, derived store, and explicit lookup. In
// hybrid mode the persisted closure already covers the materialized
// rule subset, so the ephemeral top-up pass runs only the deferred
// rules.
func (r *Reasoner) Query(ctx context.Context, pattern Pattern) ([]Triple, Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireConfigured(); err != nil {
		return nil, Stats{}, err
	}
	explicitLookup := r.derived.NewLookupFunc(SourceExplicit)
	rules := r.compiled.AllRules()
	if r.mode == ModeHybrid {
		rules = r.deferred
	}
	return Query(ctx, pattern, explicitLookup, r.derived, rules, r.mode, r.materializeOpts)
}

// StatusReport is the "reasoning_status" result: configuration,
// fact counts, and where the reasoner sits in its lifecycle.
type StatusReport struct {
	Profile             Profile
	Mode                EvaluationMode
	ExplicitCount       int
	DerivedCount        int
	LastMaterialization time.Time
	State               ReasoningStatus
}

// Status implements "reasoning_status": a point-in-time report of the
// reasoner's configuration, fact counts, and lifecycle state.
func (r *Reasoner) Status(ctx context.Context) (StatusReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := StatusReport{
		Profile:             r.profile,
		Mode:                r.mode,
		LastMaterialization: r.lastMaterialization,
		State:               r.status,
	}

	explicitLookup := r.derived.NewLookupFunc(SourceExplicit)
	explicit, err := explicitLookup(ctx, allTriplesPattern())
	if err != nil {
		return report, wrapBackendError(err)
	}
	report.ExplicitCount = len(explicit)

	derivedCount, err := r.derived.Count(ctx)
	if err != nil {
		return report, err
	}
	report.DerivedCount = derivedCount
	return report, nil
}

// ReasoningStatus returns the reasoner's current lifecycle state.
func (r *Reasoner) ReasoningStatus() ReasoningStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastError returns the error that produced StatusError, if any.
func (r *Reasoner) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// TBox returns the currently cached class/property hierarchy.
func (r *Reasoner) TBox() *TBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tbox
}

func (r *Reasoner) tboxModifying(triples []Triple) bool {
	for _, t := range triples {
		if NeedsRecomputation(t) {
			return true
		}
	}
	return false
}
