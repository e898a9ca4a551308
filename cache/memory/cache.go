// Package memory provides an in-process cache bounded by entry count,
// using an adaptive replacement cache (ARC) so both recently and
// frequently read entries stay resident.
package memory

import (
	"errors"

	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/zipfs/cache"
)

// DefaultMaxEntries is the entry limit used when none is configured.
const DefaultMaxEntries = 1024

// Cache implements cache.Cache in memory.
type Cache struct {
	arc      *arc.ARCCache[digest.Digest, []byte]
	maxEntry int
}

var _ cache.Cache = (*Cache)(nil)

// Option configures a memory cache.
type Option func(*Cache)

// WithMaxEntrySize skips caching content larger than n bytes.
// 0 disables the limit.
func WithMaxEntrySize(n int) Option {
	return func(c *Cache) {
		c.maxEntry = n
	}
}

// New creates a cache holding at most maxEntries entries.
// Values <= 0 select DefaultMaxEntries.
func New(maxEntries int, opts ...Option) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	a, err := arc.NewARC[digest.Digest, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	c := &Cache{arc: a}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntry < 0 {
		return nil, errors.New("max entry size must be >= 0")
	}
	return c, nil
}

// Get retrieves content stored under key.
func (c *Cache) Get(key digest.Digest) ([]byte, bool) {
	return c.arc.Get(key)
}

// Put stores content under key. Content is retained, not copied.
func (c *Cache) Put(key digest.Digest, content []byte) error {
	if c.maxEntry > 0 && len(content) > c.maxEntry {
		return nil
	}
	c.arc.Add(key, content)
	return nil
}

// Delete removes content stored under key.
func (c *Cache) Delete(key digest.Digest) error {
	c.arc.Remove(key)
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.arc.Len()
}
