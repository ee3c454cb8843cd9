package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorderBodyPrefersBoundConstants(t *testing.T) {
	patterns := []Pattern{
		NewPattern(Var("s"), Var("p"), Var("o")),           // fully unbound, least selective
		NewPattern(IRI("ex:alice"), RDFType, Var("t")),     // two constants, most selective
		NewPattern(Var("t"), RDFSSubClassOf, Var("super")), // depends on t bound by pattern 2
	}
	out := ReorderBody(patterns, nil)
	assert.Equal(t, patterns[1], out[0], "the doubly-constant pattern should be placed first")
}

func TestReorderBodyIsStableOnTies(t *testing.T) {
	patterns := []Pattern{
		NewPattern(Var("a"), Var("p1"), Var("b")),
		NewPattern(Var("c"), Var("p2"), Var("d")),
	}
	out := ReorderBody(patterns, nil)
	assert.Equal(t, patterns, out, "patterns with identical selectivity keep their original order")
}

func TestReorderBodyUsesPredicateStats(t *testing.T) {
	stats := &PredicateStats{
		Count: map[IRI]int{IRI("ex:rare"): 1, IRI("ex:common"): 999},
		Total: 1000,
	}
	patterns := []Pattern{
		NewPattern(Var("s1"), IRI("ex:common"), Var("o1")),
		NewPattern(Var("s2"), IRI("ex:rare"), Var("o2")),
	}
	out := ReorderBody(patterns, stats)
	assert.Equal(t, IRI("ex:rare"), out[0].Predicate, "the rarer predicate is more selective and goes first")
}

func TestPlaceConditionsPlacesAtEarliestBoundPosition(t *testing.T) {
	patterns := []Pattern{
		NewPattern(Var("s"), RDFType, Var("c")),
		NewPattern(Var("c"), RDFSSubClassOf, Var("super")),
	}
	cond := NotEqual(Var("c"), Var("super"))
	out := PlaceConditions(patterns, []Condition{cond})

	assert.Len(t, out, 3)
	assert.True(t, out[0].IsPattern())
	assert.True(t, out[1].IsPattern())
	assert.True(t, out[2].IsCondition())
}

func TestPlaceConditionsFallsBackToEnd(t *testing.T) {
	patterns := []Pattern{
		NewPattern(Var("s"), RDFType, Var("c")),
	}
	cond := NotEqual(Var("never"), Var("bound"))
	out := PlaceConditions(patterns, []Condition{cond})
	assert.True(t, out[len(out)-1].IsCondition())
}

func TestOptimizeRuleReordersAndPlaces(t *testing.T) {
	r := Rule{
		Name: "test-rule",
		Head: NewPattern(Var("s"), RDFType, Var("c")),
		Body: []BodyElement{
			ConditionElem(NotEqual(Var("s"), Var("mid"))),
			PatternElem(NewPattern(Var("s"), Var("p"), Var("mid"))),
			PatternElem(NewPattern(Var("mid"), RDFType, IRI("ex:Thing"))),
		},
	}
	out := OptimizeRule(r, nil)
	assert.Equal(t, r.Head, out.Head)
	assert.Equal(t, r.Name, out.Name)
	assert.Len(t, out.Body, len(r.Body))
}

func TestBatchGroupsByHeadPredicate(t *testing.T) {
	r1 := Rule{Name: "r1", Head: NewPattern(Var("s"), RDFType, IRI("ex:A"))}
	r2 := Rule{Name: "r2", Head: NewPattern(Var("s"), RDFType, IRI("ex:A"))}
	r3 := Rule{Name: "r3", Head: NewPattern(Var("s"), RDFSSubClassOf, Var("c"))}

	batches := Batch([]Rule{r1, r2, r3})
	assert.Len(t, batches, 2)

	var rdfTypeBatch *RuleBatch
	for i := range batches {
		if batches[i].Predicate == Term(RDFType) {
			rdfTypeBatch = &batches[i]
		}
	}
	assert.NotNil(t, rdfTypeBatch)
	assert.Equal(t, BatchSameHead, rdfTypeBatch.Type)
	assert.Len(t, rdfTypeBatch.Rules, 2)
}

func TestBatchSinglesAreIndependent(t *testing.T) {
	r := Rule{Name: "solo", Head: NewPattern(Var("s"), RDFType, IRI("ex:A"))}
	batches := Batch([]Rule{r})
	assert.Len(t, batches, 1)
	assert.Equal(t, BatchIndependent, batches[0].Type)
}

func TestBatchTypeString(t *testing.T) {
	assert.Equal(t, "independent", BatchIndependent.String())
	assert.Equal(t, "same_predicate", BatchSamePredicate.String())
	assert.Equal(t, "same_head", BatchSameHead.String())
}

func TestDeadRuleDetectsMissingSchemaFeature(t *testing.T) {
	info := newEmptySchemaInfo()
	assert.True(t, DeadRule("scm-sco", "", info))

	info.HasSubclass = true
	assert.False(t, DeadRule("scm-sco", "", info))
}

func TestDeadRuleForSpecializedProperty(t *testing.T) {
	info := newEmptySchemaInfo()
	info.TransitiveProperties[IRI("ex:ancestorOf")] = true

	assert.False(t, DeadRule("prp-trp", IRI("ex:ancestorOf"), info))
	assert.True(t, DeadRule("prp-trp", IRI("ex:unrelated"), info))
}

func TestFilterDeadRulesPartitions(t *testing.T) {
	info := newEmptySchemaInfo()
	info.TransitiveProperties[IRI("ex:ancestorOf")] = true

	specialized := []SpecializedRule{
		{Rule: Rule{Name: "prp-trp$ancestorOf"}, Property: IRI("ex:ancestorOf")},
		{Rule: Rule{Name: "prp-trp$stale"}, Property: IRI("ex:stale")},
	}
	alive, dead := FilterDeadRules(specialized, info)
	assert.Len(t, alive, 1)
	assert.Len(t, dead, 1)
	assert.Equal(t, IRI("ex:ancestorOf"), alive[0].Property)
	assert.Equal(t, IRI("ex:stale"), dead[0].Property)
}

func TestOptimizeRuleSetSortsByNameAndBatches(t *testing.T) {
	rules := []Rule{
		{Name: "zzz", Head: NewPattern(Var("s"), RDFType, IRI("ex:A"))},
		{Name: "aaa", Head: NewPattern(Var("s"), RDFType, IRI("ex:A"))},
	}
	optimized, batches := OptimizeRuleSet(rules, nil)
	assert.Equal(t, "aaa", optimized[0].Name)
	assert.Equal(t, "zzz", optimized[1].Name)
	assert.Len(t, batches, 1)
}
