package zipfs

import (
	"log/slog"
	"strings"

	"github.com/meigma/zipfs/cache"
	"github.com/meigma/zipfs/fsys"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for load and cache diagnostics.
// A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithFS sets the file system archives and sidecars are read from.
// Defaults to the host file system.
func WithFS(f fsys.FS) Option {
	return func(r *Registry) {
		if f != nil {
			r.fsys = f
		}
	}
}

// WithMmap serves archive reads from memory-mapped files on the host file
// system.
func WithMmap() Option {
	return func(r *Registry) {
		r.fsys = fsys.NewMmap()
	}
}

// WithContentCache enables caching of decoded content.
//
// ReadFile and Open serve verified content from c and fill it on misses.
// Concurrent misses for the same entry are deduplicated.
func WithContentCache(c cache.Cache) Option {
	return func(r *Registry) {
		r.cache = c
	}
}

// WithDirectoryCache sets whether LoadDirectory reads and writes sidecar
// indexes. Defaults to false.
func WithDirectoryCache(enabled bool) Option {
	return func(r *Registry) {
		r.dirCache = enabled
	}
}

// WithArchiveExtensions sets the file extensions LoadDirectory treats as
// archives, compared case-insensitively. Defaults to ".zip".
func WithArchiveExtensions(exts ...string) Option {
	return func(r *Registry) {
		r.extensions = r.extensions[:0]
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.extensions = append(r.extensions, strings.ToLower(ext))
		}
	}
}

// WithMaxFileSize limits the content size ReadFile will buffer.
// Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(r *Registry) {
		r.maxFileSize = limit
	}
}

// WithScanChunkSize sets the read size used for ZIP64 central directories.
// Values <= 0 select the default of 64 KiB.
func WithScanChunkSize(n int) Option {
	return func(r *Registry) {
		r.scanChunkSize = n
	}
}

// WithScanObserver registers fn to be called with the archive path each
// time a central directory scan starts. Sidecar hits do not call fn.
func WithScanObserver(fn func(path string)) Option {
	return func(r *Registry) {
		r.scanObserver = fn
	}
}

// WithVerifyOnClose controls whether closing a file opened with Open
// drains it to verify the CRC-32. Defaults to true.
//
// When false, integrity is only checked for files read to EOF.
func WithVerifyOnClose(enabled bool) Option {
	return func(r *Registry) {
		r.verifyOnClose = enabled
	}
}
