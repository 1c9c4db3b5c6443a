package lanevm

import (
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"

	"github.com/deepnoodle-ai/lanevm/bytecode"
)

// DefaultCacheSize is the number of modules a Cache holds when no size is
// given.
const DefaultCacheSize = 128

// Digest identifies an encoded module by the BLAKE3 hash of its bytes.
type Digest [32]byte

// DigestOf returns the digest of an encoded module.
func DigestOf(data []byte) Digest {
	return blake3.Sum256(data)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Cache keeps recently loaded modules so that identical encodings are
// decoded and validated once. It is safe for concurrent use.
type Cache struct {
	modules *lru.Cache[Digest, *bytecode.Module]
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Len    int
}

// NewCache returns a cache holding up to size modules. Sizes <= 0 select
// DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	modules, err := lru.New[Digest, *bytecode.Module](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Cache{modules: modules}
}

// Load returns the module encoded by data, decoding it only if an identical
// encoding is not cached. Invalid encodings are never cached.
func (c *Cache) Load(data []byte) (*bytecode.Module, error) {
	key := DigestOf(data)
	if m, ok := c.modules.Get(key); ok {
		c.hits.Add(1)
		return m, nil
	}
	c.misses.Add(1)
	m, err := Load(data)
	if err != nil {
		return nil, err
	}
	c.modules.Add(key, m)
	return m, nil
}

// Contains reports whether a module with the given digest is cached.
func (c *Cache) Contains(d Digest) bool {
	return c.modules.Contains(d)
}

// Purge removes every cached module.
func (c *Cache) Purge() {
	c.modules.Purge()
}

// Stats returns the hit and miss counters and the number of cached modules.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.modules.Len(),
	}
}
