package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	base := Key("a/b.py", true, 1, []byte("import os\n"))
	assert.Equal(t, base, Key("a/b.py", true, 1, []byte("import os\n")))
	assert.Len(t, base, 64)

	for name, other := range map[string]string{
		"path":    Key("a/c.py", true, 1, []byte("import os\n")),
		"flag":    Key("a/b.py", false, 1, []byte("import os\n")),
		"dots":    Key("a/b.py", true, 2, []byte("import os\n")),
		"content": Key("a/b.py", true, 1, []byte("import sys\n")),
	} {
		assert.NotEqual(t, base, other, name)
	}
	// Length prefixes keep field boundaries unambiguous.
	assert.NotEqual(t, Key("a1", true, 1, nil), Key("a", true, 11, nil))
}

func TestResultCacheMemoryOnly(t *testing.T) {
	c := New(2, nil)
	_, _, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Put("k", Entry{Path: "m.py", Imports: map[string]int{"os": 1}}))
	got, tier, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, TierMemory, tier)
	assert.Equal(t, map[string]int{"os": 1}, got.Imports)

	got.Imports["mutated"] = 9
	again, _, _ := c.Get("k")
	assert.NotContains(t, again.Imports, "mutated")
	assert.NoError(t, c.Close())
}

func TestResultCacheNil(t *testing.T) {
	var c *ResultCache
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.NoError(t, c.Put("k", Entry{}))
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Close())
}

func TestResultCacheSqliteTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	store, err := Open(path)
	require.NoError(t, err)

	first := New(4, store)
	require.NoError(t, first.Put("k1", Entry{Path: "m.py", Imports: map[string]int{"pkg.mod": 3}}))
	require.NoError(t, first.Put("k2", Entry{Path: "bad.py", Imports: map[string]int{}, ParseFailed: true}))
	require.NoError(t, first.Close())

	store, err = Open(path)
	require.NoError(t, err)
	second := New(4, store)
	defer second.Close()

	got, tier, ok := second.Get("k1")
	require.True(t, ok)
	assert.Equal(t, TierDisk, tier)
	assert.Equal(t, "m.py", got.Path)
	assert.Equal(t, map[string]int{"pkg.mod": 3}, got.Imports)

	_, tier, ok = second.Get("k1")
	require.True(t, ok)
	assert.Equal(t, TierMemory, tier)

	failed, _, ok := second.Get("k2")
	require.True(t, ok)
	assert.True(t, failed.ParseFailed)
	assert.Empty(t, failed.Imports)
}

func TestStoreReplacesStaleVersions(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save("old", Entry{Path: "m.py", Imports: map[string]int{"a": 1}}))
	require.NoError(t, store.Save("new", Entry{Path: "m.py", Imports: map[string]int{"b": 1}}))
	require.NoError(t, store.Save("other", Entry{Path: "n.py", Imports: map[string]int{"c": 1}}))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := store.Load("old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsBadPaths(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
	_, err = Open(t.TempDir())
	assert.Error(t, err)
}
