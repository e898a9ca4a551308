package zipfs

import (
	"bytes"
	"hash/crc32"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/zipfs/cache"
	"github.com/meigma/zipfs/fsys"
	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/file"
	"github.com/meigma/zipfs/internal/scan"
	"github.com/meigma/zipfs/internal/sidecar"
)

// Interface compliance.
var (
	_ fs.FS         = (*Registry)(nil)
	_ fs.StatFS     = (*Registry)(nil)
	_ fs.ReadFileFS = (*Registry)(nil)
)

// Registry holds the loaded archives and answers reads by entry name.
//
// Registry implements fs.FS, fs.StatFS and fs.ReadFileFS over the union of
// all loaded archives. When several archives contain a name, the one
// loaded first wins.
type Registry struct {
	mu      sync.RWMutex
	sources []*archive.Source
	loaded  map[string]struct{}

	fsys          fsys.FS
	reader        *file.Reader
	cache         cache.Cache        // nil = no caching
	readGroup     singleflight.Group // zero value is valid
	dirCache      bool
	extensions    []string
	maxFileSize   uint64
	scanChunkSize int
	scanObserver  func(path string)
	verifyOnClose bool
	logger        *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		loaded:        make(map[string]struct{}),
		fsys:          fsys.NewBilly(nil),
		extensions:    []string{".zip"},
		maxFileSize:   file.DefaultMaxFileSize,
		verifyOnClose: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reader = file.NewReader(r.fsys, file.WithMaxFileSize(r.maxFileSize))
	return r
}

// LoadArchive indexes the archive at path and appends it to the search
// order.
//
// With useCache, a valid sidecar index next to the archive replaces the
// central directory scan; after a scan the sidecar is rewritten on a best
// effort basis. Loading a path that is already loaded fails with
// ErrDuplicateArchive and leaves the registry unchanged, as does any other
// failure.
func (r *Registry) LoadArchive(path string, useCache bool) (*Source, error) {
	if r.isLoaded(path) {
		return nil, &fs.PathError{Op: "load", Path: path, Err: ErrDuplicateArchive}
	}

	src, err := r.index(path, useCache)
	if err != nil {
		return nil, &fs.PathError{Op: "load", Path: path, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[path]; ok {
		return nil, &fs.PathError{Op: "load", Path: path, Err: ErrDuplicateArchive}
	}
	r.loaded[path] = struct{}{}
	r.sources = append(r.sources, src)

	r.log().Debug("loaded archive", "path", path, "entries", src.Len(), "size", src.ByteSize)
	return src, nil
}

// LoadDirectory loads every archive directly inside dir, in lexical order
// of file name. Subdirectories are not visited.
//
// Files are recognized by extension (see WithArchiveExtensions) and use
// sidecar indexes when WithDirectoryCache is enabled. Loading stops at
// the first failure; archives loaded before it remain loaded.
func (r *Registry) LoadDirectory(dir string) error {
	infos, err := r.fsys.ReadDir(dir)
	if err != nil {
		return &fs.PathError{Op: "loaddir", Path: dir, Err: err}
	}
	slices.SortFunc(infos, func(a, b fs.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, info := range infos {
		if !info.Mode().IsRegular() || !r.isArchive(info.Name()) {
			continue
		}
		if _, err := r.LoadArchive(filepath.Join(dir, info.Name()), r.dirCache); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the first loaded archive containing name and its entry.
func (r *Registry) Resolve(name string) (*Source, Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		if e, ok := src.Lookup(name); ok {
			return src, e, true
		}
	}
	return nil, Entry{}, false
}

// ReadFile returns the verified content of name.
//
// The content length and CRC-32 are checked against the central directory
// before returning. A name no archive contains yields a *fs.PathError
// wrapping ErrEntryNotFound.
//
// When caching is enabled, concurrent calls for the same entry are
// deduplicated using singleflight.
func (r *Registry) ReadFile(name string) ([]byte, error) {
	src, e, ok := r.Resolve(name)
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: ErrEntryNotFound}
	}

	// No cache
	if r.cache == nil {
		return r.readEntry(src, e, name)
	}

	key := cache.Key(src.Path, src.ByteSize, name, e.CRC32)
	if content, ok := r.cachedContent(key, e, name); ok {
		return bytes.Clone(content), nil
	}

	r.log().Debug("readfile cache miss", "path", name, "archive", src.Path)

	// Cache miss with singleflight
	result, err, _ := r.readGroup.Do(key.String(), func() (any, error) {
		// Double-check cache
		if content, ok := r.cachedContent(key, e, name); ok {
			return content, nil
		}
		content, err := r.readEntry(src, e, name)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(key, content); err != nil {
			r.log().Debug("cache put failed", "path", name, "error", err)
		}
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(result.([]byte)), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// ReadFileStream returns an unverified stream of the content of name.
//
// Entries without content yield an empty reader. The caller must close
// the stream to release the archive handle.
func (r *Registry) ReadFileStream(name string) (io.ReadCloser, error) {
	src, e, ok := r.Resolve(name)
	if !ok {
		return nil, &fs.PathError{Op: "readstream", Path: name, Err: ErrEntryNotFound}
	}
	w, err := file.Resolve(r.fsys, src, e)
	if err != nil {
		return nil, &fs.PathError{Op: "readstream", Path: name, Err: err}
	}
	rc, err := r.reader.OpenStream(w)
	if err != nil {
		return nil, &fs.PathError{Op: "readstream", Path: name, Err: err}
	}
	if rc == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return rc, nil
}

// Open implements fs.FS.
//
// The returned file verifies the content CRC-32 when read to EOF and, unless
// disabled by WithVerifyOnClose, when closed early. Only regular entries
// can be opened; directories are not synthesized.
func (r *Registry) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	src, e, ok := r.Resolve(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrEntryNotFound}
	}

	if r.cache != nil {
		key := cache.Key(src.Path, src.ByteSize, name, e.CRC32)
		if content, ok := r.cachedContent(key, e, name); ok {
			f, err := newCachedFile(name, content)
			if err != nil {
				return nil, err
			}
			return f, nil
		}
	}

	w, err := file.Resolve(r.fsys, src, e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return r.reader.OpenFile(w, name, r.verifyOnClose), nil
}

// Stat implements fs.StatFS.
//
// Stat answers from the index without touching the archive.
func (r *Registry) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	_, e, ok := r.Resolve(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: ErrEntryNotFound}
	}
	info, err := file.NewInfo(path.Base(name), e.UncompressedLength)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return info, nil
}

// Window resolves name to the physical location of its payload.
func (r *Registry) Window(name string) (Window, error) {
	src, e, ok := r.Resolve(name)
	if !ok {
		return Window{}, &fs.PathError{Op: "window", Path: name, Err: ErrEntryNotFound}
	}
	w, err := file.Resolve(r.fsys, src, e)
	if err != nil {
		return Window{}, &fs.PathError{Op: "window", Path: name, Err: err}
	}
	return w, nil
}

// Sources returns the loaded archives in search order.
func (r *Registry) Sources() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sources)
}

// Len returns the number of loaded archives.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

func (r *Registry) isLoaded(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaded[path]
	return ok
}

func (r *Registry) isArchive(name string) bool {
	return slices.Contains(r.extensions, strings.ToLower(filepath.Ext(name)))
}

// index builds the entry table of the archive at path, from its sidecar
// when allowed and valid, otherwise by scanning the central directory.
func (r *Registry) index(path string, useCache bool) (*archive.Source, error) {
	info, err := r.fsys.Stat(path)
	if err != nil {
		return nil, err
	}
	size := info.Size()

	if useCache {
		if src, ok := sidecar.Load(r.fsys, path, size, archive.FormatVersion); ok {
			r.log().Debug("sidecar hit", "path", path, "entries", src.Len())
			return src, nil
		}
		r.log().Debug("sidecar miss", "path", path)
	}

	f, err := r.fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if r.scanObserver != nil {
		r.scanObserver(path)
	}
	src, err := scan.Scan(f, size, path,
		scan.WithChunkSize(r.scanChunkSize),
		scan.WithLogger(r.log()),
	)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := sidecar.Save(r.fsys, src); err != nil {
			r.log().Warn("failed to save sidecar", "path", path, "error", err)
		}
	}
	return src, nil
}

// readEntry resolves and reads one entry with full verification.
func (r *Registry) readEntry(src *archive.Source, e archive.Entry, name string) ([]byte, error) {
	w, err := file.Resolve(r.fsys, src, e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	content, err := r.reader.ReadAll(w)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return content, nil
}

// cachedContent returns cached content for e if present and intact.
// Corrupt hits are removed from the cache.
func (r *Registry) cachedContent(key digest.Digest, e archive.Entry, name string) ([]byte, bool) {
	content, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	if uint64(len(content)) == e.UncompressedLength && crc32.ChecksumIEEE(content) == e.CRC32 {
		r.log().Debug("cache hit", "path", name)
		return content, true
	}
	r.log().Warn("dropping corrupt cache entry", "path", name, "key", key)
	_ = r.cache.Delete(key) //nolint:errcheck // best-effort cache cleanup on mismatch
	return nil, false
}
