package reason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTBoxComputesTransitiveClosure(t *testing.T) {
	q := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:Student"), RDFSSubClassOf, IRI("ex:Person")),
		NewTriple(IRI("ex:Person"), RDFSSubClassOf, IRI("ex:Agent")),
		NewTriple(IRI("ex:hasChild"), RDFSSubPropertyOf, IRI("ex:hasDescendant")),
	}}

	tbox, err := BuildTBox(context.Background(), q, 0, 0)
	require.NoError(t, err)

	assert.ElementsMatch(t, []IRI{"ex:Person", "ex:Agent"}, tbox.Superclasses(IRI("ex:Student")))
	assert.ElementsMatch(t, []IRI{"ex:Student"}, tbox.Subclasses(IRI("ex:Person")))
	assert.ElementsMatch(t, []IRI{"ex:hasDescendant"}, tbox.Superproperties(IRI("ex:hasChild")))
	assert.NotEmpty(t, tbox.Version)
}

func TestBuildTBoxExtractsCharacteristicsAndInverses(t *testing.T) {
	q := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:ancestorOf"), RDFType, OWLTransitiveProp),
		NewTriple(IRI("ex:marriedTo"), RDFType, OWLSymmetricProp),
		NewTriple(IRI("ex:hasSSN"), RDFType, OWLFunctionalProp),
		NewTriple(IRI("ex:ssnOf"), RDFType, OWLInverseFuncProp),
		NewTriple(IRI("ex:parentOf"), OWLInverseOf, IRI("ex:childOf")),
	}}

	tbox, err := BuildTBox(context.Background(), q, 0, 0)
	require.NoError(t, err)

	assert.True(t, tbox.TransitiveProperty(IRI("ex:ancestorOf")))
	assert.True(t, tbox.SymmetricProperty(IRI("ex:marriedTo")))
	assert.True(t, tbox.FunctionalProperty(IRI("ex:hasSSN")))
	assert.True(t, tbox.InverseFunctionalProperty(IRI("ex:ssnOf")))

	inv, ok := tbox.InverseOf(IRI("ex:parentOf"))
	require.True(t, ok)
	assert.Equal(t, IRI("ex:childOf"), inv)
	inv, ok = tbox.InverseOf(IRI("ex:childOf"))
	require.True(t, ok)
	assert.Equal(t, IRI("ex:parentOf"), inv)
}

func TestBuildTBoxCycleConvergesAndDeepChainOverflows(t *testing.T) {
	cycle := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:A"), RDFSSubClassOf, IRI("ex:B")),
		NewTriple(IRI("ex:B"), RDFSSubClassOf, IRI("ex:A")),
	}}
	tbox, err := BuildTBox(context.Background(), cycle, 1, 0)
	require.NoError(t, err, "a subClassOf cycle converges without hitting the cap")
	assert.ElementsMatch(t, []IRI{"ex:B"}, tbox.Superclasses(IRI("ex:A")))

	// A two-step chain adds A->C in the first pass, so a one-pass cap is
	// exhausted before a pass can confirm the closure is complete.
	chain := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:A"), RDFSSubClassOf, IRI("ex:B")),
		NewTriple(IRI("ex:B"), RDFSSubClassOf, IRI("ex:C")),
	}}
	_, err = BuildTBox(context.Background(), chain, 1, 0)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrMaxIterationsExceeded, kind)
}

func TestNeedsRecomputationDetectsTBoxPredicatesAndCharacteristics(t *testing.T) {
	assert.True(t, NeedsRecomputation(NewTriple(IRI("ex:A"), RDFSSubClassOf, IRI("ex:B"))))
	assert.True(t, NeedsRecomputation(NewTriple(IRI("ex:p"), OWLInverseOf, IRI("ex:q"))))
	assert.True(t, NeedsRecomputation(NewTriple(IRI("ex:trans"), RDFType, OWLTransitiveProp)))
	assert.False(t, NeedsRecomputation(NewTriple(IRI("ex:alice"), RDFType, IRI("ex:Person"))))
	assert.False(t, NeedsRecomputation(NewTriple(IRI("ex:alice"), IRI("ex:knows"), IRI("ex:bob"))))
}

func TestNeedsRecomputationBatchCategorizes(t *testing.T) {
	need := NeedsRecomputationBatch([]Triple{
		NewTriple(IRI("ex:A"), RDFSSubClassOf, IRI("ex:B")),
	})
	assert.True(t, need.Class)
	assert.False(t, need.Property)
	assert.True(t, need.Any)

	need = NeedsRecomputationBatch([]Triple{
		NewTriple(IRI("ex:p"), RDFSSubPropertyOf, IRI("ex:q")),
		NewTriple(IRI("ex:trans"), RDFType, OWLTransitiveProp),
	})
	assert.False(t, need.Class)
	assert.True(t, need.Property)
	assert.True(t, need.Any)

	need = NeedsRecomputationBatch([]Triple{
		NewTriple(IRI("ex:p"), RDFSDomain, IRI("ex:C")),
	})
	assert.False(t, need.Class)
	assert.False(t, need.Property)
	assert.True(t, need.Any, "domain shapes rule applicability even though it is in neither hierarchy")

	need = NeedsRecomputationBatch([]Triple{
		NewTriple(IRI("ex:alice"), IRI("ex:knows"), IRI("ex:bob")),
	})
	assert.Equal(t, RecomputationNeed{}, need)
}

func TestBuildTBoxPopulatesSuperOnlyClasses(t *testing.T) {
	q := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:Student"), RDFSSubClassOf, IRI("ex:Person")),
	}}
	tbox, err := BuildTBox(context.Background(), q, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, tbox.Superclasses(IRI("ex:Person")))
	assert.Equal(t, 2, tbox.Stats.ClassCount, "both Student and super-only Person count as known classes")
}

func TestHandleTBoxUpdateRebuildsOnlyWhenNeeded(t *testing.T) {
	q := &fakeQueryInterface{triples: []Triple{
		NewTriple(IRI("ex:Student"), RDFSSubClassOf, IRI("ex:Person")),
	}}
	current, err := BuildTBox(context.Background(), q, 0, 0)
	require.NoError(t, err)

	unrelated := []Triple{NewTriple(IRI("ex:alice"), IRI("ex:knows"), IRI("ex:bob"))}
	same, err := HandleTBoxUpdate(context.Background(), current, unrelated, q, 0, 0)
	require.NoError(t, err)
	assert.Same(t, current, same)

	q.triples = append(q.triples, NewTriple(IRI("ex:Person"), RDFSSubClassOf, IRI("ex:Agent")))
	changed := []Triple{NewTriple(IRI("ex:Person"), RDFSSubClassOf, IRI("ex:Agent"))}
	rebuilt, err := HandleTBoxUpdate(context.Background(), current, changed, q, 0, 0)
	require.NoError(t, err)
	assert.NotSame(t, current, rebuilt)
	assert.Contains(t, rebuilt.Superclasses(IRI("ex:Student")), IRI("ex:Agent"))
}

func TestHandleTBoxUpdateBuildsWhenCurrentIsNil(t *testing.T) {
	q := &fakeQueryInterface{}
	tbox, err := HandleTBoxUpdate(context.Background(), nil, nil, q, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, tbox)
}
