// Package scan builds an archive entry table by reading the ZIP central
// directory.
//
// Regular archives have their central directory read into a single buffer.
// ZIP64 archives, whose directories may be arbitrarily large, are read in
// fixed-size chunks; records straddling a chunk boundary are carried over
// to the next chunk so memory stays bounded by one chunk plus one record.
package scan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/sizing"
	"github.com/meigma/zipfs/internal/zipfmt"
)

const (
	// DefaultChunkSize is the read size used for ZIP64 central directories.
	DefaultChunkSize = 64 << 10

	// tailSize bounds the backward search for the end records.
	tailSize = 1024
)

// Option configures a scan.
type Option func(*scanner)

// WithChunkSize sets the chunk size used for ZIP64 central directories.
// Values <= 0 select DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(s *scanner) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		s.chunkSize = n
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *scanner) {
		s.logger = logger
	}
}

// WithForceChunked reads regular (non-ZIP64) central directories in chunks
// as well. It exists so both parsing paths can be compared on one archive.
func WithForceChunked(enabled bool) Option {
	return func(s *scanner) {
		s.forceChunked = enabled
	}
}

type scanner struct {
	chunkSize    int
	forceChunked bool
	logger       *slog.Logger

	src     *archive.Source
	records int
	dirs    int
	chunks  int
}

func (s *scanner) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Scan indexes the archive readable through r, which is size bytes long.
//
// The returned Source contains every non-directory record of the central
// directory. Signature mismatches fail the whole scan with
// archive.ErrInvalidArchive or archive.ErrCorruptCentralDirectory; no
// partial index is returned. Read errors are wrapped and propagated.
func Scan(r io.ReaderAt, size int64, path string, opts ...Option) (*archive.Source, error) {
	s := &scanner{
		chunkSize: DefaultChunkSize,
		src:       archive.NewSource(path, size),
	}
	for _, opt := range opts {
		opt(s)
	}

	end, err := s.findEnd(r, size)
	if err != nil {
		return nil, err
	}

	last, ok := sizing.AddUint64(end.DirectoryOffset, end.DirectorySize)
	if !ok || last > uint64(size) { //nolint:gosec // size is non-negative
		return nil, fmt.Errorf("%w: directory [%d, +%d) exceeds archive size %d",
			archive.ErrCorruptCentralDirectory, end.DirectoryOffset, end.DirectorySize, size)
	}

	if end.Zip64 || s.forceChunked {
		err = s.scanChunked(r, end)
	} else {
		err = s.scanContiguous(r, end)
	}
	if err != nil {
		return nil, err
	}

	s.log().Debug("scanned central directory",
		"path", path,
		"entries", s.src.Len(),
		"records", s.records,
		"directories", s.dirs,
		"zip64", end.Zip64,
		"chunks", s.chunks,
	)
	return s.src, nil
}

// findEnd locates the end of central directory record, and the ZIP64 end
// record when the regular one carries the offset sentinel, in the last
// tailSize bytes of the archive.
func (s *scanner) findEnd(r io.ReaderAt, size int64) (zipfmt.End, error) {
	n := min(int64(tailSize), size)
	tail := make([]byte, n)
	if err := readAt(r, tail, size-n); err != nil {
		return zipfmt.End{}, fmt.Errorf("read archive tail: %w", err)
	}

	pos := zipfmt.FindEnd(tail)
	if pos < 0 {
		return zipfmt.End{}, fmt.Errorf("%w: end of central directory not found", archive.ErrInvalidArchive)
	}
	end := zipfmt.ParseEnd(tail[pos:])
	if !end.NeedsZip64() {
		return end, nil
	}

	pos64 := zipfmt.FindEnd64(tail, pos)
	if pos64 < 0 {
		return zipfmt.End{}, fmt.Errorf("%w: zip64 end of central directory not found", archive.ErrInvalidArchive)
	}
	return zipfmt.ParseEnd64(tail[pos64:]), nil
}

// scanContiguous reads the whole directory into one buffer.
func (s *scanner) scanContiguous(r io.ReaderAt, end zipfmt.End) error {
	n, err := sizing.ToInt(end.DirectorySize, archive.ErrSizeOverflow)
	if err != nil {
		return err
	}
	off, err := sizing.ToInt64(end.DirectoryOffset, archive.ErrSizeOverflow)
	if err != nil {
		return err
	}

	buf := make([]byte, n)
	if err := readAt(r, buf, off); err != nil {
		return fmt.Errorf("read central directory: %w", err)
	}
	s.chunks = 1

	consumed, err := s.parse(buf)
	if err != nil {
		return err
	}
	if consumed != len(buf) {
		return fmt.Errorf("%w: truncated record at directory offset %d", archive.ErrCorruptCentralDirectory, consumed)
	}
	return nil
}

// scanChunked reads the directory in chunkSize pieces, carrying partial
// records across chunk boundaries.
func (s *scanner) scanChunked(r io.ReaderAt, end zipfmt.End) error {
	off, err := sizing.ToInt64(end.DirectoryOffset, archive.ErrSizeOverflow)
	if err != nil {
		return err
	}

	var c carry
	remaining := end.DirectorySize
	for remaining > 0 {
		n := int(min(remaining, uint64(s.chunkSize))) //nolint:gosec // bounded by chunkSize
		if err := c.fill(r, off, n); err != nil {
			return fmt.Errorf("read central directory chunk at %d: %w", off, err)
		}
		s.chunks++
		off += int64(n)
		remaining -= uint64(n) //nolint:gosec // n is positive

		consumed, err := s.parse(c.pending())
		if err != nil {
			return err
		}
		c.advance(consumed)
	}

	if left := len(c.pending()); left > 0 {
		return fmt.Errorf("%w: %d trailing bytes form an incomplete record", archive.ErrCorruptCentralDirectory, left)
	}
	return nil
}

// parse indexes every complete record at the start of b and returns the
// number of bytes consumed. Parsing stops without error at the first
// incomplete record.
func (s *scanner) parse(b []byte) (int, error) {
	consumed := 0
	for consumed < len(b) {
		rec, err := zipfmt.ParseCentralRecord(b[consumed:])
		if errors.Is(err, zipfmt.ErrIncomplete) {
			break
		}
		if err != nil {
			return consumed, err
		}
		s.records++
		if rec.IsDir() {
			s.dirs++
		} else {
			s.src.Entries[rec.Name] = rec.Entry()
		}
		consumed += rec.Size
	}
	return consumed, nil
}

// carry holds the bytes of the current chunk plus whatever the previous
// chunk left unconsumed. cursor marks the first unconsumed byte.
type carry struct {
	buf    []byte
	cursor int
}

// fill moves the unconsumed bytes to the front of the buffer and appends n
// bytes read from r at off.
func (c *carry) fill(r io.ReaderAt, off int64, n int) error {
	c.buf = append(c.buf[:0], c.buf[c.cursor:]...)
	c.cursor = 0
	start := len(c.buf)
	c.buf = slices.Grow(c.buf, n)[:start+n]
	return readAt(r, c.buf[start:], off)
}

func (c *carry) pending() []byte {
	return c.buf[c.cursor:]
}

func (c *carry) advance(n int) {
	c.cursor += n
}

// readAt fills p from r at off, accepting io.EOF only when p was filled.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
