// Package testutil provides fixtures shared by the zipfs tests: a ZIP
// builder with exact control over the byte layout and file-system helpers.
package testutil

import (
	"bytes"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/meigma/zipfs/fsys"
)

// MemFS returns an empty in-memory file system.
func MemFS() *fsys.Billy {
	return fsys.NewBilly(memfs.New())
}

// WriteFile stores data at name in the billy-backed file system, creating
// parent directories as needed.
func WriteFile(tb testing.TB, fsy *fsys.Billy, name string, data []byte) {
	tb.Helper()
	if err := util.WriteFile(fsy.Unwrap(), name, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
}

// CountingFS wraps an fsys.FS and counts operations.
type CountingFS struct {
	fsys.FS

	opens     atomic.Int64
	bytesRead atomic.Int64

	mu     sync.Mutex
	byName map[string]int
	failOn map[string]error
}

// NewCountingFS wraps fsy.
func NewCountingFS(fsy fsys.FS) *CountingFS {
	return &CountingFS{
		FS:     fsy,
		byName: make(map[string]int),
		failOn: make(map[string]error),
	}
}

// Open counts the call and delegates.
func (c *CountingFS) Open(name string) (fsys.File, error) {
	c.opens.Add(1)
	c.mu.Lock()
	c.byName[name]++
	err := c.failOn[name]
	c.mu.Unlock()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := c.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return &countingFile{File: f, read: &c.bytesRead}, nil
}

// WriteFileAtomic delegates unless a failure was injected for name.
func (c *CountingFS) WriteFileAtomic(name string, data []byte) error {
	c.mu.Lock()
	err := c.failOn[name]
	c.mu.Unlock()
	if err != nil {
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	return c.FS.WriteFileAtomic(name, data)
}

// FailOn makes Open and WriteFileAtomic of name return err.
func (c *CountingFS) FailOn(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[name] = err
}

// Opens returns the total number of Open calls.
func (c *CountingFS) Opens() int64 {
	return c.opens.Load()
}

// OpensOf returns the number of Open calls for name.
func (c *CountingFS) OpensOf(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byName[name]
}

// BytesRead returns the number of bytes read through opened files.
func (c *CountingFS) BytesRead() int64 {
	return c.bytesRead.Load()
}

type countingFile struct {
	fsys.File
	read *atomic.Int64
}

func (f *countingFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.File.ReadAt(p, off)
	f.read.Add(int64(n))
	return n, err
}

// ReaderAt is an in-memory io.ReaderAt that counts reads.
type ReaderAt struct {
	*bytes.Reader
	reads atomic.Int64
}

// NewReaderAt returns a counting reader over data.
func NewReaderAt(data []byte) *ReaderAt {
	return &ReaderAt{Reader: bytes.NewReader(data)}
}

// ReadAt counts the call and delegates.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	r.reads.Add(1)
	return r.Reader.ReadAt(p, off)
}

// Reads returns the number of ReadAt calls.
func (r *ReaderAt) Reads() int64 {
	return r.reads.Load()
}
