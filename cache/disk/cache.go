// Package disk provides a disk-backed cache implementation.
package disk

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/zipfs/cache"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
)

// Cache implements cache.Cache using the local filesystem.
//
// Entries are stored one file per key, sharded by the leading hex
// characters of the key. Writes go to a temporary file that is renamed
// into place, so readers never observe partial content.
type Cache struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	maxBytes       int64

	// pruneMu guards size, a running total of cached bytes maintained
	// while maxBytes is set. It is seeded by one walk of the cache
	// directory on the first Put.
	pruneMu   sync.Mutex
	size      int64
	sizeKnown bool
}

var _ cache.Cache = (*Cache)(nil)

// Option configures a disk cache.
type Option func(*Cache)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// WithMaxBytes bounds the total size of cached content. After a Put
// pushes the cache over the limit, the least recently written entries
// are removed. 0 disables the limit.
//
// Puts are checked against a running total, so the cache directory is
// only walked when the limit is exceeded. Files added or removed behind
// the cache's back are noticed at the next prune.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// New creates a disk-backed cache rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if c.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves content stored under key.
func (c *Cache) Get(key digest.Digest) ([]byte, bool) {
	path, err := c.path(key)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated digest
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores content under key.
func (c *Cache) Put(key digest.Digest, content []byte) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "cache-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return err
	}

	if c.maxBytes > 0 {
		return c.account(int64(len(content)))
	}
	return nil
}

// account adds delta bytes to the running total and prunes once it
// exceeds maxBytes.
func (c *Cache) account(delta int64) error {
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()

	if c.sizeKnown {
		c.size += delta
	} else {
		size, err := dirSize(c.dir)
		if err != nil {
			return err
		}
		c.size, c.sizeKnown = size, true
	}
	if c.size <= c.maxBytes {
		return nil
	}

	_, remaining, err := pruneDir(c.dir, c.maxBytes)
	if err != nil {
		c.sizeKnown = false
		return err
	}
	c.size = remaining
	return nil
}

// Delete removes content stored under key.
func (c *Cache) Delete(key digest.Digest) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if statErr == nil {
		c.pruneMu.Lock()
		if c.sizeKnown {
			c.size -= info.Size()
		}
		c.pruneMu.Unlock()
	}
	return nil
}

// SizeBytes returns the total size of cached content.
func (c *Cache) SizeBytes() (int64, error) {
	return dirSize(c.dir)
}

// Prune removes the oldest entries until the cache holds at most
// targetBytes. It returns the number of bytes freed.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()
	freed, remaining, err := pruneDir(c.dir, targetBytes)
	if err != nil {
		c.sizeKnown = false
		return freed, err
	}
	c.size, c.sizeKnown = remaining, true
	return freed, nil
}

func (c *Cache) path(key digest.Digest) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	name := key.Encoded()
	if c.shardPrefixLen <= 0 {
		return filepath.Join(c.dir, name), nil
	}
	prefixLen := min(c.shardPrefixLen, len(name))
	return filepath.Join(c.dir, name[:prefixLen], name), nil
}
