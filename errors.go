package zipfs

import "github.com/meigma/zipfs/internal/archive"

// Sentinel errors re-exported from internal/archive.
var (
	// ErrDuplicateArchive is returned when an archive path is loaded twice.
	ErrDuplicateArchive = archive.ErrDuplicateArchive

	// ErrInvalidArchive is returned when no end of central directory record
	// can be found.
	ErrInvalidArchive = archive.ErrInvalidArchive

	// ErrCorruptCentralDirectory is returned when a central directory record
	// is malformed.
	ErrCorruptCentralDirectory = archive.ErrCorruptCentralDirectory

	// ErrCorruptLocalHeader is returned when a local file header is malformed.
	ErrCorruptLocalHeader = archive.ErrCorruptLocalHeader

	// ErrEntryNotFound is returned when no loaded archive contains a name.
	// It wraps fs.ErrNotExist.
	ErrEntryNotFound = archive.ErrEntryNotFound

	// ErrUnsupportedCompression is returned for methods other than store
	// and deflate.
	ErrUnsupportedCompression = archive.ErrUnsupportedCompression

	// ErrTruncatedPayload is returned when decoded content is shorter or
	// longer than recorded.
	ErrTruncatedPayload = archive.ErrTruncatedPayload

	// ErrIntegrityMismatch is returned when content fails its CRC-32 check.
	ErrIntegrityMismatch = archive.ErrIntegrityMismatch

	// ErrDecompression is returned when a DEFLATE stream cannot be decoded.
	ErrDecompression = archive.ErrDecompression

	// ErrSizeOverflow is returned when sizes exceed supported limits.
	ErrSizeOverflow = archive.ErrSizeOverflow
)
