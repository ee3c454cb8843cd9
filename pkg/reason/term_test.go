package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermEquality(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Term
		equal bool
	}{
		{"same IRI", IRI("ex:alice"), IRI("ex:alice"), true},
		{"different IRI", IRI("ex:alice"), IRI("ex:bob"), false},
		{"IRI vs blank node never equal", IRI("ex:alice"), BlankNode("ex:alice"), false},
		{"same blank node", BlankNode("b1"), BlankNode("b1"), true},
		{"same plain literal", Lit("hello"), Lit("hello"), true},
		{"different plain literal", Lit("hello"), Lit("world"), false},
		{"plain literal vs lang literal never equal", Lit("hello"), LangLit("hello", "en"), false},
		{"same typed literal", TypedLit("42", IRI("xsd:integer")), TypedLit("42", IRI("xsd:integer")), true},
		{"typed literal different datatype", TypedLit("42", IRI("xsd:integer")), TypedLit("42", IRI("xsd:string")), false},
		{"same lang literal", LangLit("hi", "en"), LangLit("hi", "en"), true},
		{"lang literal different tag", LangLit("hi", "en"), LangLit("hi", "fr"), false},
		{"same variable name", Var("x"), Var("x"), true},
		{"different variable name", Var("x"), Var("y"), false},
		{"variable never equals IRI", Var("x"), IRI("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestTermIsVar(t *testing.T) {
	assert.False(t, IRI("ex:alice").IsVar())
	assert.False(t, BlankNode("b1").IsVar())
	assert.False(t, Lit("x").IsVar())
	assert.False(t, TypedLit("1", IRI("xsd:integer")).IsVar())
	assert.False(t, LangLit("x", "en").IsVar())
	assert.True(t, Var("x").IsVar())
}

func TestTermStringForms(t *testing.T) {
	assert.Equal(t, "ex:alice", IRI("ex:alice").String())
	assert.Equal(t, "_:b1", BlankNode("b1").String())
	assert.Equal(t, `"hello"`, Lit("hello").String())
	assert.Equal(t, `"42"^^xsd:integer`, TypedLit("42", IRI("xsd:integer")).String())
	assert.Equal(t, `"hi"@en`, LangLit("hi", "en").String())
	assert.Equal(t, "?x", Var("x").String())
}

func TestIsIRIBlankLiteralHelpers(t *testing.T) {
	assert.True(t, isIRITerm(IRI("ex:a")))
	assert.False(t, isIRITerm(BlankNode("b")))

	assert.True(t, isBlankTerm(BlankNode("b")))
	assert.False(t, isBlankTerm(IRI("ex:a")))

	assert.True(t, isLiteralTerm(Lit("x")))
	assert.True(t, isLiteralTerm(TypedLit("1", IRI("xsd:integer"))))
	assert.True(t, isLiteralTerm(LangLit("x", "en")))
	assert.False(t, isLiteralTerm(IRI("ex:a")))
	assert.False(t, isLiteralTerm(Var("x")))
}
