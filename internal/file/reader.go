// Package file locates entry payloads inside archives and reads them with
// length and CRC-32 verification.
package file

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"

	"github.com/meigma/zipfs/fsys"
	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/sizing"
)

// DefaultMaxFileSize is the default maximum content size ReadAll will
// buffer (256MB).
const DefaultMaxFileSize = 256 << 20

// Reader opens and verifies entry payloads described by windows.
type Reader struct {
	fsys        fsys.FS
	maxFileSize uint64
	pool        *DecompressPool
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxFileSize sets the maximum content size ReadAll will buffer.
// Set to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(r *Reader) {
		r.maxFileSize = limit
	}
}

// WithDecompressPool shares a decoder pool between readers.
func WithDecompressPool(pool *DecompressPool) Option {
	return func(r *Reader) {
		if pool != nil {
			r.pool = pool
		}
	}
}

// NewReader creates a Reader that opens archives through fsy.
func NewReader(fsy fsys.FS, opts ...Option) *Reader {
	r := &Reader{
		fsys:        fsy,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = NewDecompressPool()
	}
	return r
}

// MaxFileSize returns the configured maximum file size.
func (r *Reader) MaxFileSize() uint64 {
	return r.maxFileSize
}

// OpenStream opens the payload described by w as a decoded stream.
//
// It returns a nil stream and nil error when the window is empty. The
// stream is not verified; use ReadAll or OpenFile for checked reads.
// Closing the stream releases the decoder and the archive handle.
func (r *Reader) OpenStream(w archive.Window) (io.ReadCloser, error) {
	if w.Empty() {
		return nil, nil
	}
	if !w.Method.Supported() {
		return nil, fmt.Errorf("%w: method %d in %s", archive.ErrUnsupportedCompression, uint16(w.Method), w.FilePath)
	}

	offset, err := sizing.ToInt64(w.Offset, archive.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	length, err := sizing.ToInt64(w.CompressedLength, archive.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	f, err := r.fsys.Open(w.FilePath)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(f, offset, length)

	if w.Method == archive.MethodStore {
		return &stream{r: section, closeFn: f.Close}, nil
	}

	dec, release := r.pool.Get(section)
	return &stream{
		r: &decodeErrReader{r: dec},
		closeFn: func() error {
			release()
			return f.Close()
		},
	}, nil
}

// ReadAll reads the entire payload, decompresses if needed, and verifies
// the length and CRC-32 before returning the content.
func (r *Reader) ReadAll(w archive.Window) ([]byte, error) {
	if r.maxFileSize > 0 && w.UncompressedLength > r.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", archive.ErrSizeOverflow, w.UncompressedLength, r.maxFileSize)
	}
	if w.UncompressedLength == 0 {
		return []byte{}, nil
	}

	rc, err := r.OpenStream(w)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, fmt.Errorf("%w: no payload for %d bytes", archive.ErrTruncatedPayload, w.UncompressedLength)
	}
	defer rc.Close()

	content, err := sizing.ReadUpTo(rc, w.UncompressedLength, archive.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	if err := verify(w, content); err != nil {
		return nil, err
	}
	return content, nil
}

// OpenFile returns an fs.File streaming the payload of w under name.
// The CRC-32 and length are verified when the stream is exhausted and,
// if verifyOnClose is set, when the file is closed early.
func (r *Reader) OpenFile(w archive.Window, name string, verifyOnClose bool) *File {
	return &File{
		reader:        r,
		window:        w,
		name:          name,
		verifyOnClose: verifyOnClose,
	}
}

func verify(w archive.Window, content []byte) error {
	if uint64(len(content)) != w.UncompressedLength {
		return fmt.Errorf("%w: got %d bytes, want %d", archive.ErrTruncatedPayload, len(content), w.UncompressedLength)
	}
	if sum := crc32.ChecksumIEEE(content); sum != w.CRC32 {
		return fmt.Errorf("%w: got %08x, want %08x", archive.ErrIntegrityMismatch, sum, w.CRC32)
	}
	return nil
}

type stream struct {
	r       io.Reader
	closeFn func() error
	closed  bool
}

func (s *stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, fs.ErrClosed
	}
	return s.r.Read(p)
}

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.closeFn()
}

// decodeErrReader reports decoder failures as ErrDecompression.
type decodeErrReader struct {
	r io.Reader
}

func (d *decodeErrReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %w", archive.ErrDecompression, err)
	}
	return n, err
}

// readFull fills p from r at off, accepting io.EOF only when p was filled.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
