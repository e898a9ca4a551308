package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillyFS is the subset of billy.Filesystem used by [Billy].
type BillyFS interface {
	billy.Basic
	billy.Dir
}

// Billy adapts a go-billy file system to [FS].
type Billy struct {
	bfs BillyFS
}

var _ FS = (*Billy)(nil)

// NewBilly wraps bfs. A nil bfs selects the host file system, resolving
// paths exactly as the os package does.
func NewBilly(bfs BillyFS) *Billy {
	if bfs == nil {
		bfs = osfs.Default
	}
	return &Billy{bfs: bfs}
}

// Unwrap returns the underlying billy file system.
func (b *Billy) Unwrap() BillyFS {
	return b.bfs
}

// Open opens name for reading.
func (b *Billy) Open(name string) (File, error) {
	f, err := b.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stat returns metadata for name.
func (b *Billy) Stat(name string) (fs.FileInfo, error) {
	return b.bfs.Stat(name)
}

// ReadDir lists name sorted by file name.
func (b *Billy) ReadDir(name string) ([]fs.FileInfo, error) {
	infos, err := b.bfs.ReadDir(name)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(infos, func(a, b fs.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return infos, nil
}

// ReadFile reads the whole of name.
func (b *Billy) ReadFile(name string) ([]byte, error) {
	return util.ReadFile(b.bfs, name)
}

// WriteFileAtomic writes data to a temporary file beside name and renames
// it into place.
func (b *Billy) WriteFileAtomic(name string, data []byte) (err error) {
	dir := filepath.Dir(name)
	tmp, err := util.TempFile(b.bfs, dir, ".tmp-"+filepath.Base(name)+"-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = b.bfs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = b.bfs.Rename(tmpName, name); err != nil {
		// Some platforms refuse to rename over an existing file.
		if rmErr := b.bfs.Remove(name); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("rename temp file: %w", err)
		}
		if err = b.bfs.Rename(tmpName, name); err != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}
	return nil
}
