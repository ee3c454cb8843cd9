package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRuleKnownNames(t *testing.T) {
	for _, name := range CatalogRuleNames() {
		t.Run(name, func(t *testing.T) {
			r, err := CatalogRule(name)
			require.NoError(t, err)
			assert.Equal(t, name, r.Name)
			assert.NotEmpty(t, r.Body, "every catalog rule has a non-empty body")
			assert.True(t, r.Head.Subject != nil && r.Head.Predicate != nil && r.Head.Object != nil)
		})
	}
}

func TestCatalogRuleUnknownName(t *testing.T) {
	_, err := CatalogRule("no-such-rule")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownRule, kind)
}

func TestCatalogRuleNamesAreStable(t *testing.T) {
	first := CatalogRuleNames()
	second := CatalogRuleNames()
	assert.Equal(t, first, second, "catalog order must be stable across calls")
	assert.Contains(t, first, "eq-ref")
	assert.Contains(t, first, "prp-trp")
	assert.Contains(t, first, "cls-avf")
}

func TestProfileRuleNamesPartitionsCatalog(t *testing.T) {
	rdfs := ProfileRuleNames(ProfileRDFS)
	owl2rl := ProfileRuleNames(ProfileOWL2RL)

	assert.Contains(t, rdfs, "scm-sco")
	assert.Contains(t, rdfs, "cax-sco")
	assert.NotContains(t, rdfs, "prp-trp")

	assert.Contains(t, owl2rl, "prp-trp")
	assert.Contains(t, owl2rl, "eq-sym")
	assert.NotContains(t, owl2rl, "scm-sco")

	assert.Len(t, rdfs, len(rdfs))
	assert.Equal(t, len(CatalogRuleNames()), len(rdfs)+len(owl2rl))
}

func TestEQRefBodyMatchesAnyTriple(t *testing.T) {
	r, err := CatalogRule("eq-ref")
	require.NoError(t, err)
	assert.Len(t, r.BodyPatterns(), 1, "eq-ref's single body pattern is unconstrained on predicate/object")
	p := r.BodyPatterns()[0]
	assert.True(t, p.Predicate.IsVar())
	assert.True(t, p.Object.IsVar())
}

func TestPropertyCharacteristicAndTBoxPredicateTables(t *testing.T) {
	assert.True(t, propertyCharacteristicClasses[OWLTransitiveProp])
	assert.True(t, propertyCharacteristicClasses[OWLSymmetricProp])
	assert.True(t, propertyCharacteristicClasses[OWLFunctionalProp])
	assert.True(t, propertyCharacteristicClasses[OWLInverseFuncProp])
	assert.False(t, propertyCharacteristicClasses[OWLSameAs])

	assert.True(t, tboxPredicates[RDFSSubClassOf])
	assert.True(t, tboxPredicates[RDFSSubPropertyOf])
	assert.True(t, tboxPredicates[OWLInverseOf])
	assert.True(t, tboxPredicates[RDFSDomain])
	assert.True(t, tboxPredicates[RDFSRange])
	assert.False(t, tboxPredicates[RDFType])
}
