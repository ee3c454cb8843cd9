package reason

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	version string
}

func (f fakeSnapshot) SnapshotVersion() string { return f.version }

func TestRegistryStoreLoad(t *testing.T) {
	r := NewRegistry[fakeSnapshot](0)

	_, err := r.Load("missing")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrNotFound, kind)

	r.Store("a", fakeSnapshot{version: "v1"})
	got, err := r.Load("a")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.version)

	assert.True(t, r.Exists("a"))
	assert.False(t, r.Exists("b"))
}

func TestRegistryStoreReplacesPriorValue(t *testing.T) {
	r := NewRegistry[fakeSnapshot](0)
	r.Store("a", fakeSnapshot{version: "v1"})
	r.Store("a", fakeSnapshot{version: "v2"})

	got, err := r.Load("a")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.version)
}

func TestRegistryRemoveAndClear(t *testing.T) {
	r := NewRegistry[fakeSnapshot](0)
	r.Store("a", fakeSnapshot{version: "v1"})
	r.Store("b", fakeSnapshot{version: "v1"})

	r.Remove("a")
	assert.False(t, r.Exists("a"))
	assert.True(t, r.Exists("b"))

	r.Remove("nonexistent") // must not panic

	r.Clear()
	assert.False(t, r.Exists("b"))
	assert.Empty(t, r.List())
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry[fakeSnapshot](0)
	r.Store("a", fakeSnapshot{version: "v1"})
	r.Store("b", fakeSnapshot{version: "v1"})
	r.Store("c", fakeSnapshot{version: "v1"})

	keys := r.List()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestRegistryStale(t *testing.T) {
	r := NewRegistry[fakeSnapshot](0)
	assert.True(t, r.Stale("missing", "v1"), "a missing snapshot is always stale")

	r.Store("a", fakeSnapshot{version: "v1"})
	assert.False(t, r.Stale("a", "v1"))
	assert.True(t, r.Stale("a", "v2"))
}

func TestRegistryCapacityEviction(t *testing.T) {
	r := NewRegistry[fakeSnapshot](2)
	r.Store("a", fakeSnapshot{version: "v1"})
	r.Store("b", fakeSnapshot{version: "v1"})
	r.Store("c", fakeSnapshot{version: "v1"}) // evicts "a" (least recently used)

	assert.False(t, r.Exists("a"))
	assert.True(t, r.Exists("b"))
	assert.True(t, r.Exists("c"))
}
