package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/zipfs/cache"
)

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("hello")
	key := cache.Key("a.zip", 10, "hello.txt", 1)

	if err := c.Put(key, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("Get() content = %q, want %q", got, content)
	}

	name := key.Encoded()
	path := filepath.Join(dir, name[:defaultShardPrefixLen], name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
}

func TestCacheGetMiss(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := c.Get(cache.Key("a.zip", 1, "missing", 0)); ok {
		t.Fatal("Get() ok = true for missing key")
	}
	if _, ok := c.Get(digest.Digest("not-a-digest")); ok {
		t.Fatal("Get() ok = true for invalid key")
	}
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	key := cache.Key("a.zip", 1, "f", 0)
	if err := c.Put(key, []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatal("Get() ok = true after Delete")
	}
	if err := c.Delete(key); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestCacheMaxBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithMaxBytes(25))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	keys := []digest.Digest{
		cache.Key("a.zip", 1, "one", 1),
		cache.Key("a.zip", 1, "two", 2),
		cache.Key("a.zip", 1, "three", 3),
	}
	for i, key := range keys {
		if err := c.Put(key, bytes.Repeat([]byte{'x'}, 10)); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
		// Distinct modification times keep eviction order deterministic.
		name := key.Encoded()
		mtime := time.Unix(int64(1000+i), 0)
		if err := os.Chtimes(filepath.Join(dir, name[:2], name), mtime, mtime); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
	}

	if _, ok := c.Get(keys[0]); ok {
		t.Error("oldest entry survived pruning")
	}
	for _, key := range keys[1:] {
		if _, ok := c.Get(key); !ok {
			t.Errorf("entry %s was pruned", key)
		}
	}
	size, err := c.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes() error = %v", err)
	}
	if size != 20 {
		t.Errorf("SizeBytes() = %d, want 20", size)
	}
}

func TestCacheMaxBytesRunningTotal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithMaxBytes(100))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var keys []digest.Digest
	for i := range 3 {
		key := cache.Key("a.zip", 1, string(rune('a'+i)), uint32(i))
		keys = append(keys, key)
		if err := c.Put(key, bytes.Repeat([]byte{byte(i)}, 10)); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}
	if c.size != 30 {
		t.Errorf("running total = %d, want 30", c.size)
	}

	if err := c.Delete(keys[0]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Delete(keys[0]); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	size, err := c.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes() error = %v", err)
	}
	if c.size != size || size != 20 {
		t.Errorf("running total = %d, SizeBytes() = %d, want 20", c.size, size)
	}

	// A file the cache did not write is picked up by the next prune.
	if err := os.WriteFile(filepath.Join(dir, "stray"), bytes.Repeat([]byte{1}, 90), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := c.Put(cache.Key("a.zip", 1, "z", 9), bytes.Repeat([]byte{9}, 10)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if c.size != 30 {
		t.Errorf("running total = %d, want 30 (under the limit, no walk)", c.size)
	}
	if _, err := c.Prune(100); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	size, err = c.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes() error = %v", err)
	}
	if size > 100 || c.size != size {
		t.Errorf("after Prune running total = %d, SizeBytes() = %d, want equal and <= 100", c.size, size)
	}
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := cache.Key("a.zip", 1, "flat", 0)
	if err := c.Put(key, []byte("flat")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, key.Encoded())); err != nil {
		t.Fatalf("expected unsharded cache file: %v", err)
	}
}

func TestNewEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}
	if _, err := New(t.TempDir(), WithShardPrefixLen(-1)); err == nil {
		t.Fatal("New() with negative shard length error = nil, want error")
	}
}
