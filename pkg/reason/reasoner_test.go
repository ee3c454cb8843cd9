package reason_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/owlreasoner/internal/store"
	"github.com/gitrdm/owlreasoner/pkg/reason"
)

func newTestReasoner(t *testing.T) (*reason.Reasoner, reason.Dictionary, reason.TripleIndex) {
	t.Helper()
	backend := store.NewMemoryBackend()
	explicit := store.NewMemoryTripleIndex()
	dict := store.NewMemoryDictionary()
	r := reason.NewReasoner(reason.ReasonerConfig{Backend: backend, Explicit: explicit, Dict: dict})
	return r, dict, explicit
}

func seedExplicit(t *testing.T, ctx context.Context, dict reason.Dictionary, explicit reason.TripleIndex, triples []reason.Triple) {
	t.Helper()
	for _, tr := range triples {
		sid, err := dict.ToID(ctx, tr.Subject)
		require.NoError(t, err)
		pid, err := dict.ToID(ctx, tr.Predicate)
		require.NoError(t, err)
		oid, err := dict.ToID(ctx, tr.Object)
		require.NoError(t, err)
		require.NoError(t, explicit.InsertTriples(ctx, []reason.IDTriple{{Subject: sid, Predicate: pid, Object: oid}}))
	}
}

func TestReasonerRequiresConfigureBeforeOperations(t *testing.T) {
	r, _, _ := newTestReasoner(t)
	ctx := context.Background()

	_, err := r.Materialize(ctx)
	require.Error(t, err)
	kind, ok := reason.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, reason.ErrNotFound, kind)
	assert.Equal(t, reason.StatusError, r.ReasoningStatus())
}

func TestReasonerConfigureAndMaterializeProducesClosure(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()

	seedExplicit(t, ctx, dict, explicit, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
		reason.NewTriple(reason.IRI("ex:Person"), reason.RDFSSubClassOf, reason.IRI("ex:Agent")),
	})

	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))
	assert.Equal(t, reason.StatusInitialized, r.ReasoningStatus())
	require.NotNil(t, r.TBox())

	stats, err := r.Materialize(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.TotalDerived, 0)
	assert.Equal(t, reason.StatusMaterialized, r.ReasoningStatus())

	out, _, err := r.Query(ctx, reason.NewPattern(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.Var("t")))
	require.NoError(t, err)
	assert.Contains(t, out, reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Agent")))
}

func TestReasonerAddDropsToStaleOnTBoxModifyingTriple(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, nil)
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))
	_, err := r.Materialize(ctx)
	require.NoError(t, err)

	_, err = r.Add(ctx, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
	})
	require.NoError(t, err)
	assert.Equal(t, reason.StatusStale, r.ReasoningStatus(), "a subClassOf addition invalidates the cached TBox")
}

func TestReasonerAddKeepsMaterializedOnNonTBoxTriple(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, nil)
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))
	_, err := r.Materialize(ctx)
	require.NoError(t, err)

	_, err = r.Add(ctx, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Person")),
	})
	require.NoError(t, err)
	assert.Equal(t, reason.StatusMaterialized, r.ReasoningStatus())
}

func TestReasonerPreviewAddLeavesStateUntouched(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
	})
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))
	_, err := r.Materialize(ctx)
	require.NoError(t, err)
	statusBefore := r.ReasoningStatus()

	preview, err := r.PreviewAdd(ctx, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Person"), reason.RDFSSubClassOf, reason.IRI("ex:Agent")),
	})
	require.NoError(t, err)
	assert.Contains(t, preview.Derived, reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Agent")))
	assert.Equal(t, statusBefore, r.ReasoningStatus(), "preview must not change reasoner status")

	out, _, err := r.Query(ctx, reason.NewPattern(reason.IRI("ex:Person"), reason.RDFSSubClassOf, reason.IRI("ex:Agent")))
	require.NoError(t, err)
	assert.Empty(t, out, "preview must not persist into the derived store")
}

func TestReasonerDeleteAndPreviewDelete(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seed := []reason.Triple{
		reason.NewTriple(reason.IRI("ex:a"), reason.RDFSSubClassOf, reason.IRI("ex:b")),
		reason.NewTriple(reason.IRI("ex:b"), reason.RDFSSubClassOf, reason.IRI("ex:c")),
	}
	seedExplicit(t, ctx, dict, explicit, seed)
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))
	_, err := r.Materialize(ctx)
	require.NoError(t, err)

	preview, err := r.PreviewDelete(ctx, []reason.Triple{seed[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, preview.DerivedDeleted)

	ac := reason.NewTriple(reason.IRI("ex:a"), reason.RDFSSubClassOf, reason.IRI("ex:c"))
	out, _, err := r.Query(ctx, reason.NewPattern(reason.IRI("ex:a"), reason.RDFSSubClassOf, reason.IRI("ex:c")))
	require.NoError(t, err)
	assert.Contains(t, out, ac, "preview_delete must not perform the physical delete")

	stats, err := r.Delete(ctx, []reason.Triple{seed[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DerivedDeleted)
	assert.Equal(t, reason.StatusStale, r.ReasoningStatus())

	out, _, err = r.Query(ctx, reason.NewPattern(reason.IRI("ex:a"), reason.RDFSSubClassOf, reason.IRI("ex:c")))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReasonerStatusReportsCountsAndConfiguration(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
		reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Student")),
	})
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized))

	report, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, reason.ProfileRDFS, report.Profile)
	assert.Equal(t, reason.ModeMaterialized, report.Mode)
	assert.Equal(t, 2, report.ExplicitCount)
	assert.Equal(t, 0, report.DerivedCount)
	assert.Equal(t, reason.StatusInitialized, report.State)
	assert.True(t, report.LastMaterialization.IsZero())

	_, err = r.Materialize(ctx)
	require.NoError(t, err)

	report, err = r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DerivedCount, "alice rdf:type Person")
	assert.Equal(t, reason.StatusMaterialized, report.State)
	assert.False(t, report.LastMaterialization.IsZero())
}

func TestReasonerQueryTimeModePersistsNothing(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
		reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Student")),
	})
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeQueryTime))

	_, err := r.Materialize(ctx)
	require.NoError(t, err)

	report, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DerivedCount, "query_time mode precomputes nothing")

	out, stats, err := r.Query(ctx, reason.NewPattern(reason.IRI("ex:alice"), reason.RDFType, reason.Var("t")))
	require.NoError(t, err)
	assert.Contains(t, out, reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Person")))
	assert.Greater(t, stats.TotalDerived, 0, "the closure was computed ephemerally at query time")

	report, err = r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DerivedCount, "the query-time closure must not have been written back")
}

func TestReasonerNoneModeAnswersFromExplicitOnly(t *testing.T) {
	r, dict, explicit := newTestReasoner(t)
	ctx := context.Background()
	seedExplicit(t, ctx, dict, explicit, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:Student"), reason.RDFSSubClassOf, reason.IRI("ex:Person")),
		reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Student")),
	})
	require.NoError(t, r.Configure(ctx, reason.ProfileRDFS, reason.ModeNone))

	out, _, err := r.Query(ctx, reason.NewPattern(reason.IRI("ex:alice"), reason.RDFType, reason.Var("t")))
	require.NoError(t, err)
	assert.Equal(t, []reason.Triple{
		reason.NewTriple(reason.IRI("ex:alice"), reason.RDFType, reason.IRI("ex:Student")),
	}, out, "mode none performs no inference at all")
}

func TestReasonerLastErrorReflectsFailure(t *testing.T) {
	r, _, _ := newTestReasoner(t)
	ctx := context.Background()
	_, err := r.Materialize(ctx)
	require.Error(t, err)
	assert.Equal(t, err, r.LastError())
}
