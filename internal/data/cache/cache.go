package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"strconv"
)

// Entry is a cached analysis outcome for one file version.
type Entry struct {
	Path        string
	Imports     map[string]int
	ParseFailed bool
}

// Tier reports where a hit came from.
type Tier string

const (
	TierMemory Tier = "memory"
	TierDisk   Tier = "sqlite"
)

// Key identifies one analysis: the same path, options and bytes always map
// to the same key, and any change to one of them yields a new key.
func Key(path string, stringImports bool, minDots int, content []byte) string {
	h := sha256.New()
	var n [8]byte
	for _, part := range [][]byte{[]byte(path), []byte(strconv.FormatBool(stringImports)), []byte(strconv.Itoa(minDots))} {
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write(part)
	}
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// ResultCache fronts an optional sqlite Store with an in-memory LRU.
type ResultCache struct {
	mem   *LRU[string, Entry]
	store *Store
}

// New builds a cache. store may be nil for a memory-only cache.
func New(entries int, store *Store) *ResultCache {
	return &ResultCache{mem: NewLRU[string, Entry](entries), store: store}
}

func (c *ResultCache) Get(key string) (Entry, Tier, bool) {
	if c == nil {
		return Entry{}, "", false
	}
	if e, ok := c.mem.Get(key); ok {
		return clone(e), TierMemory, true
	}
	if c.store == nil {
		return Entry{}, "", false
	}
	e, ok, err := c.store.Load(key)
	if err != nil {
		slog.Warn("cache lookup failed", "path", c.store.Path(), "error", err)
		return Entry{}, "", false
	}
	if !ok {
		return Entry{}, "", false
	}
	c.mem.Put(key, e)
	return clone(e), TierDisk, true
}

// Put records an entry in memory and, when configured, on disk. Disk errors
// are returned but the memory tier is always updated.
func (c *ResultCache) Put(key string, e Entry) error {
	if c == nil {
		return nil
	}
	e = clone(e)
	c.mem.Put(key, e)
	if c.store == nil {
		return nil
	}
	return c.store.Save(key, e)
}

func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.mem.Len()
}

func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

// clone keeps callers from mutating cached maps.
func clone(e Entry) Entry {
	imports := make(map[string]int, len(e.Imports))
	for k, v := range e.Imports {
		imports[k] = v
	}
	e.Imports = imports
	return e
}
