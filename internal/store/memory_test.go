package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/owlreasoner/pkg/reason"
)

func TestMemoryBackendPutGetDeleteExists(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	ok, err := b.Exists(ctx, "cf1", []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := b.Get(ctx, "cf1", []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, b.Put(ctx, "cf1", []byte("k"), []byte("v1")))
	v, err = b.Get(ctx, "cf1", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	ok, err = b.Exists(ctx, "cf1", []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Delete(ctx, "cf1", []byte("k")))
	ok, err = b.Exists(ctx, "cf1", []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBackendPutCopiesValueOnWriteAndRead(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, b.Put(ctx, "cf", []byte("k"), buf))
	buf[0] = 'X'

	got, err := b.Get(ctx, "cf", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "Put must defensively copy the caller's slice")

	got[0] = 'Y'
	got2, err := b.Get(ctx, "cf", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got2, "Get must return a copy, not the stored slice")
}

func TestMemoryBackendSeparatesColumnFamilies(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "cfA", []byte("k"), []byte("a")))
	require.NoError(t, b.Put(ctx, "cfB", []byte("k"), []byte("b")))

	v, err := b.Get(ctx, "cfA", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	v, err = b.Get(ctx, "cfB", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)
}

func TestMemoryBackendWriteBatchAndDeleteBatch(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.WriteBatch(ctx, []reason.KVOp{
		{CF: "cf", Key: []byte("a"), Value: []byte("1")},
		{CF: "cf", Key: []byte("b"), Value: []byte("2")},
	}))

	va, err := b.Get(ctx, "cf", []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), va)
	vb, err := b.Get(ctx, "cf", []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), vb)

	require.NoError(t, b.DeleteBatch(ctx, []reason.KVOp{{CF: "cf", Key: []byte("a")}}))
	va, err = b.Get(ctx, "cf", []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, va)
	vb, err = b.Get(ctx, "cf", []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), vb, "DeleteBatch must only remove the keys it was given")
}

func TestMemoryBackendPrefixStreamOrderingAndFiltering(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "cf", []byte("a/2"), []byte("2")))
	require.NoError(t, b.Put(ctx, "cf", []byte("a/1"), []byte("1")))
	require.NoError(t, b.Put(ctx, "cf", []byte("b/1"), []byte("x")))

	it, err := b.PrefixStream(ctx, "cf", []byte("a/"))
	require.NoError(t, err)
	var keys []string
	for it.Next(ctx) {
		keys = append(keys, string(it.Pair().Key))
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"a/1", "a/2"}, keys)
}

func TestMemoryBackendPrefixStreamEmptyPrefixReturnsWholeFamily(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "cf", []byte("x"), []byte("1")))
	require.NoError(t, b.Put(ctx, "cf", []byte("y"), []byte("2")))

	it, err := b.PrefixStream(ctx, "cf", nil)
	require.NoError(t, err)
	count := 0
	for it.Next(ctx) {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestMemoryBackendSnapshotIsolatesFromLaterWrites(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "cf", []byte("k"), []byte("before")))

	snap, err := b.NewSnapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "cf", []byte("k"), []byte("after")))
	require.NoError(t, b.Put(ctx, "cf", []byte("k2"), []byte("new")))

	v, err := snap.Get(ctx, "cf", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), v, "snapshot must not observe writes made after it was taken")

	v, err = snap.Get(ctx, "cf", []byte("k2"))
	require.NoError(t, err)
	assert.Nil(t, v)

	liveV, err := b.Get(ctx, "cf", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("after"), liveV)

	snap.Release()
}

func TestMemoryBackendSnapshotPrefixStream(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "cf", []byte("a/1"), []byte("1")))
	require.NoError(t, b.Put(ctx, "cf", []byte("a/2"), []byte("2")))

	snap, err := b.NewSnapshot(ctx)
	require.NoError(t, err)
	defer snap.Release()

	require.NoError(t, b.Put(ctx, "cf", []byte("a/3"), []byte("3")))

	it, err := snap.PrefixStream(ctx, "cf", []byte("a/"))
	require.NoError(t, err)
	var keys []string
	for it.Next(ctx) {
		keys = append(keys, string(it.Pair().Key))
	}
	assert.Equal(t, []string{"a/1", "a/2"}, keys, "snapshot prefix scan excludes writes made after the snapshot")
}
