package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/owlreasoner/pkg/reason"
)

func TestMemoryDictionaryAssignsStableIDs(t *testing.T) {
	d := NewMemoryDictionary()
	ctx := context.Background()

	id1, err := d.ToID(ctx, reason.IRI("ex:alice"))
	require.NoError(t, err)
	assert.NotZero(t, id1, "id 0 is reserved")

	id2, err := d.ToID(ctx, reason.IRI("ex:alice"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "re-interning the same term returns the same id")

	id3, err := d.ToID(ctx, reason.IRI("ex:bob"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestMemoryDictionaryRoundtrip(t *testing.T) {
	d := NewMemoryDictionary()
	ctx := context.Background()

	term := reason.IRI("ex:alice")
	id, err := d.ToID(ctx, term)
	require.NoError(t, err)

	got, err := d.ToTerm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, term, got)
}

func TestMemoryDictionaryMissingIDReturnsError(t *testing.T) {
	d := NewMemoryDictionary()
	_, err := d.ToTerm(context.Background(), 999)
	require.Error(t, err)
}

func TestMemoryDictionaryDistinguishesTermKinds(t *testing.T) {
	d := NewMemoryDictionary()
	ctx := context.Background()

	iriID, err := d.ToID(ctx, reason.IRI("ex:same"))
	require.NoError(t, err)
	litID, err := d.ToID(ctx, reason.Lit("ex:same"))
	require.NoError(t, err)
	assert.NotEqual(t, iriID, litID, "an IRI and a literal with the same lexical form are distinct terms")
}
