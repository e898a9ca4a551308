package file

import (
	"bytes"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/sizing"
)

// File implements fs.File for streaming reads with CRC-32 verification.
type File struct {
	reader        *Reader
	window        archive.Window
	name          string
	verifyOnClose bool

	rc        io.ReadCloser
	hasher    hash.Hash32
	remaining uint64

	initialized bool
	initErr     error
	verified    bool
	verifyErr   error
	closed      bool
}

// Interface compliance.
var _ fs.File = (*File)(nil)

// Read implements io.Reader with incremental CRC-32 verification.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if err := f.init(); err != nil {
		return 0, err
	}
	if f.verifyErr != nil {
		return 0, f.verifyErr
	}
	if len(p) == 0 {
		return 0, nil
	}

	if f.remaining == 0 {
		return f.readExtra()
	}

	if uint64(len(p)) > f.remaining {
		p = p[:f.remaining]
	}

	n, err := f.rc.Read(p)
	if n > 0 {
		_, _ = f.hasher.Write(p[:n]) //nolint:errcheck // hash writes never fail
		f.remaining -= uint64(n)
	}

	if errors.Is(err, io.EOF) {
		if f.remaining != 0 {
			f.verified = true
			f.verifyErr = fmt.Errorf("%w: stream ended %d bytes early", archive.ErrTruncatedPayload, f.remaining)
			return n, f.verifyErr
		}
		if verifyErr := f.verifyCRC(); verifyErr != nil {
			return n, verifyErr
		}
		return n, io.EOF
	}
	return n, err
}

// Stat returns file info.
func (f *File) Stat() (fs.FileInfo, error) {
	return NewInfo(path.Base(f.name), f.window.UncompressedLength)
}

// Close releases the stream and, when enabled, drains the remaining
// content to verify it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	defer func() {
		f.closed = true
		if f.rc != nil {
			_ = f.rc.Close()
			f.rc = nil
		}
	}()

	if err := f.init(); err != nil {
		return err
	}
	if f.verified {
		return f.verifyErr
	}
	if !f.verifyOnClose {
		return nil
	}

	buf := make([]byte, 32*1024)
	for {
		_, err := f.Read(buf)
		if errors.Is(err, io.EOF) {
			return f.verifyErr
		}
		if err != nil {
			return err
		}
	}
}

func (f *File) init() error {
	if f.initialized {
		return f.initErr
	}
	f.initialized = true
	f.hasher = crc32.NewIEEE()
	f.remaining = f.window.UncompressedLength

	if f.window.UncompressedLength == 0 {
		f.rc = io.NopCloser(bytes.NewReader(nil))
		return nil
	}

	rc, err := f.reader.OpenStream(f.window)
	if err != nil {
		f.initErr = fmt.Errorf("open %s: %w", f.name, err)
		return f.initErr
	}
	if rc == nil {
		f.initErr = fmt.Errorf("open %s: %w: no payload for %d bytes", f.name, archive.ErrTruncatedPayload, f.window.UncompressedLength)
		return f.initErr
	}
	f.rc = rc
	return nil
}

// readExtra checks that the stream holds nothing past the recorded length.
func (f *File) readExtra() (int, error) {
	var scratch [1]byte
	n, err := f.rc.Read(scratch[:])
	if n > 0 {
		f.verified = true
		f.verifyErr = fmt.Errorf("%w: content longer than %d bytes", archive.ErrTruncatedPayload, f.window.UncompressedLength)
		return 0, f.verifyErr
	}
	if errors.Is(err, io.EOF) {
		if verifyErr := f.verifyCRC(); verifyErr != nil {
			return 0, verifyErr
		}
		return 0, io.EOF
	}
	return 0, err
}

func (f *File) verifyCRC() error {
	if f.verified {
		return f.verifyErr
	}
	if sum := f.hasher.Sum32(); sum != f.window.CRC32 && f.window.UncompressedLength > 0 {
		f.verifyErr = fmt.Errorf("%w: got %08x, want %08x", archive.ErrIntegrityMismatch, sum, f.window.CRC32)
	}
	f.verified = true
	return f.verifyErr
}

// Info implements fs.FileInfo for archive entries.
type Info struct {
	name string
	size int64
}

// NewInfo creates an Info for an entry with the given base name and
// uncompressed length.
func NewInfo(name string, length uint64) (*Info, error) {
	size, err := sizing.ToInt64(length, archive.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	return &Info{name: name, size: size}, nil
}

func (fi *Info) Name() string       { return fi.name }
func (fi *Info) Size() int64        { return fi.size }
func (fi *Info) Mode() fs.FileMode  { return 0o444 }
func (fi *Info) ModTime() time.Time { return time.Time{} }
func (fi *Info) IsDir() bool        { return false }
func (fi *Info) Sys() any           { return nil }
