package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripleGroundAndEqual(t *testing.T) {
	ground := NewTriple(IRI("ex:alice"), IRI("rdf:type"), IRI("ex:Person"))
	assert.True(t, ground.Ground())

	withVar := NewTriple(Var("s"), IRI("rdf:type"), IRI("ex:Person"))
	assert.False(t, withVar.Ground())

	assert.True(t, ground.Equal(NewTriple(IRI("ex:alice"), IRI("rdf:type"), IRI("ex:Person"))))
	assert.False(t, ground.Equal(NewTriple(IRI("ex:bob"), IRI("rdf:type"), IRI("ex:Person"))))
}

func TestPatternVariables(t *testing.T) {
	p := NewPattern(Var("s"), IRI("rdf:type"), Var("o"))
	assert.Equal(t, []string{"s", "o"}, p.Variables())

	repeated := NewPattern(Var("x"), Var("x"), Var("y"))
	assert.Equal(t, []string{"x", "y"}, repeated.Variables())

	ground := NewPattern(IRI("ex:alice"), IRI("rdf:type"), IRI("ex:Person"))
	assert.Nil(t, ground.Variables())
	assert.True(t, ground.Ground())
}

func TestConditionVariables(t *testing.T) {
	tests := []struct {
		name string
		c    Condition
		want []string
	}{
		{"not_equal both vars", NotEqual(Var("x"), Var("y")), []string{"x", "y"}},
		{"not_equal one constant", NotEqual(Var("x"), IRI("ex:a")), []string{"x"}},
		{"is_iri", IsIRI(Var("x")), []string{"x"}},
		{"is_blank", IsBlank(Var("x")), []string{"x"}},
		{"is_literal", IsLiteral(Var("x")), []string{"x"}},
		{"bound", Bound(Var("x")), []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Variables())
		})
	}
}

func TestConditionString(t *testing.T) {
	assert.Contains(t, NotEqual(Var("x"), Var("y")).String(), "not_equal")
	assert.Contains(t, IsIRI(Var("x")).String(), "is_iri")
	assert.Contains(t, IsBlank(Var("x")).String(), "is_blank")
	assert.Contains(t, IsLiteral(Var("x")).String(), "is_literal")
	assert.Contains(t, Bound(Var("x")).String(), "bound")
}

func TestBodyElementDiscriminator(t *testing.T) {
	p := PatternElem(NewPattern(Var("s"), IRI("rdf:type"), Var("o")))
	require.True(t, p.IsPattern())
	assert.False(t, p.IsCondition())

	c := ConditionElem(NotEqual(Var("x"), Var("y")))
	require.True(t, c.IsCondition())
	assert.False(t, c.IsPattern())
}
