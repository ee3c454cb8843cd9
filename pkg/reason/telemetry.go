package reason

import (
	"time"

	"github.com/armon/go-metrics"
)

// Telemetry emits the best-effort reasoner events:
// [reasoner, compile, {start,stop,exception}],
// [reasoner, optimize, {start,stop}],
// [reasoner, materialize, {start,stop,iteration}],
// [reasoner, delete, {start,stop}]. It wraps armon/go-metrics, the
// metrics facade the wider example corpus (hashicorp/nomad) uses
// throughout its scheduler and client subsystems, rather than inventing
// a bespoke event bus.
//
// A nil *Telemetry is valid and every method becomes a no-op, matching
// "Implementations without a telemetry channel may discard these."
type Telemetry struct {
	sink *metrics.Metrics
}

// NewTelemetry wraps sink. Pass nil to disable emission entirely.
func NewTelemetry(sink *metrics.Metrics) *Telemetry {
	return &Telemetry{sink: sink}
}

// NewDefaultTelemetry returns a Telemetry backed by metrics.DefaultInmemSignal
// style global, using go-metrics' package-level default if the caller
// never configured one. In practice callers in long-lived services
// should construct their own metrics.Metrics with a real sink and pass
// it to NewTelemetry; this helper exists for tests and cmd/example.
func NewDefaultTelemetry() *Telemetry {
	return &Telemetry{sink: metrics.Default()}
}

func (t *Telemetry) emitCounter(key []string, labels ...metrics.Label) {
	if t == nil || t.sink == nil {
		return
	}
	t.sink.IncrCounterWithLabels(key, 1, labels)
}

func (t *Telemetry) emitDuration(key []string, start time.Time, labels ...metrics.Label) {
	if t == nil || t.sink == nil {
		return
	}
	t.sink.MeasureSinceWithLabels(key, start, labels)
}

func (t *Telemetry) emitSample(key []string, value float32, labels ...metrics.Label) {
	if t == nil || t.sink == nil {
		return
	}
	t.sink.AddSampleWithLabels(key, value, labels)
}

// CompileStart/CompileStop/CompileException bracket compilation.
func (t *Telemetry) CompileStart(profile Profile) time.Time {
	t.emitCounter([]string{"reasoner", "compile", "start"}, metrics.Label{Name: "profile", Value: string(profile)})
	return time.Now()
}

func (t *Telemetry) CompileStop(start time.Time, profile Profile, ruleCount int) {
	t.emitDuration([]string{"reasoner", "compile", "stop"}, start, metrics.Label{Name: "profile", Value: string(profile)})
	t.emitSample([]string{"reasoner", "compile", "rule_count"}, float32(ruleCount), metrics.Label{Name: "profile", Value: string(profile)})
}

func (t *Telemetry) CompileException(err error) {
	t.emitCounter([]string{"reasoner", "compile", "exception"})
}

// OptimizeStart/OptimizeStop bracket optimization.
func (t *Telemetry) OptimizeStart() time.Time {
	t.emitCounter([]string{"reasoner", "optimize", "start"})
	return time.Now()
}

func (t *Telemetry) OptimizeStop(start time.Time) {
	t.emitDuration([]string{"reasoner", "optimize", "stop"}, start)
}

// MaterializeStart/MaterializeStop/MaterializeIteration bracket a
// materialization run and report its per-iteration progress.
func (t *Telemetry) MaterializeStart(parallel bool) time.Time {
	t.emitCounter([]string{"reasoner", "materialize", "start"}, metrics.Label{Name: "parallel", Value: boolLabel(parallel)})
	return time.Now()
}

func (t *Telemetry) MaterializeStop(start time.Time, stats Stats) {
	t.emitDuration([]string{"reasoner", "materialize", "stop"}, start)
	t.emitSample([]string{"reasoner", "materialize", "total_derived"}, float32(stats.TotalDerived))
	t.emitSample([]string{"reasoner", "materialize", "iterations"}, float32(stats.Iterations))
}

func (t *Telemetry) MaterializeIteration(iteration int, derivations int, rulesApplied int) {
	t.emitSample([]string{"reasoner", "materialize", "iteration", "derivations"}, float32(derivations))
	t.emitSample([]string{"reasoner", "materialize", "iteration", "rules_applied"}, float32(rulesApplied))
}

// DeleteStart/DeleteStop bracket a deletion run.
func (t *Telemetry) DeleteStart() time.Time {
	t.emitCounter([]string{"reasoner", "delete", "start"})
	return time.Now()
}

func (t *Telemetry) DeleteStop(start time.Time, stats DeleteStats) {
	t.emitDuration([]string{"reasoner", "delete", "stop"}, start)
	t.emitSample([]string{"reasoner", "delete", "derived_deleted"}, float32(stats.DerivedDeleted))
	t.emitSample([]string{"reasoner", "delete", "derived_kept"}, float32(stats.DerivedKept))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
