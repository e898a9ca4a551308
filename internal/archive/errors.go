package archive

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors returned while loading and reading archives.
var (
	// ErrDuplicateArchive is returned when an archive path is loaded twice.
	ErrDuplicateArchive = errors.New("zipfs: archive already loaded")

	// ErrInvalidArchive is returned when the end of central directory
	// record (or its ZIP64 counterpart) cannot be located.
	ErrInvalidArchive = errors.New("zipfs: not a valid zip archive")

	// ErrCorruptCentralDirectory is returned when a central directory
	// record is malformed.
	ErrCorruptCentralDirectory = errors.New("zipfs: corrupt central directory")

	// ErrCorruptLocalHeader is returned when a local file header is malformed.
	ErrCorruptLocalHeader = errors.New("zipfs: corrupt local file header")

	// ErrEntryNotFound is returned when no loaded archive contains a name.
	ErrEntryNotFound = fmt.Errorf("zipfs: entry not found: %w", fs.ErrNotExist)

	// ErrUnsupportedCompression is returned for methods other than store
	// and deflate.
	ErrUnsupportedCompression = errors.New("zipfs: unsupported compression method")

	// ErrTruncatedPayload is returned when decoded content length differs
	// from the recorded uncompressed length.
	ErrTruncatedPayload = errors.New("zipfs: payload length mismatch")

	// ErrIntegrityMismatch is returned when decoded content fails its
	// CRC-32 check.
	ErrIntegrityMismatch = errors.New("zipfs: crc32 mismatch")

	// ErrDecompression is returned when the deflate stream cannot be decoded.
	ErrDecompression = errors.New("zipfs: decompression failed")

	// ErrSizeOverflow is returned when sizes or offsets exceed supported limits.
	ErrSizeOverflow = errors.New("zipfs: size overflow")
)
