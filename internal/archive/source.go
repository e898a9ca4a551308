package archive

// FormatVersion identifies the layout of persisted entry tables.
// Bump it whenever the sidecar encoding changes so stale sidecars miss.
const FormatVersion uint32 = 1

// Entry locates a single file record inside an archive.
//
// Compression method and compressed length are intentionally absent: they
// are read from the local file header when the entry is resolved.
type Entry struct {
	// CRC32 is the IEEE CRC-32 of the uncompressed content as recorded in
	// the central directory.
	CRC32 uint32

	// LocalHeaderOffset is the absolute offset of the entry's local file
	// header, after any ZIP64 override.
	LocalHeaderOffset uint64

	// UncompressedLength is the size of the original content in bytes,
	// after any ZIP64 override.
	UncompressedLength uint64
}

// Source is the name index of one loaded archive.
//
// A Source is immutable once published by a registry and may be shared
// between concurrent readers.
type Source struct {
	// Path is the archive path exactly as it was handed to the loader.
	Path string

	// ByteSize is the archive size at the time it was indexed.
	ByteSize int64

	// FormatVersion is the entry table layout version (see FormatVersion).
	FormatVersion uint32

	// Entries maps entry names to their locations. Directory records are
	// never present.
	Entries map[string]Entry
}

// NewSource returns an empty Source for the archive at path.
func NewSource(path string, byteSize int64) *Source {
	return &Source{
		Path:          path,
		ByteSize:      byteSize,
		FormatVersion: FormatVersion,
		Entries:       make(map[string]Entry),
	}
}

// Lookup returns the entry stored under name.
func (s *Source) Lookup(name string) (Entry, bool) {
	e, ok := s.Entries[name]
	return e, ok
}

// Len returns the number of indexed entries.
func (s *Source) Len() int {
	return len(s.Entries)
}

// Matches reports whether s was indexed from an archive of byteSize bytes
// using the given entry table layout version.
func (s *Source) Matches(byteSize int64, formatVersion uint32) bool {
	return s.ByteSize == byteSize && s.FormatVersion == formatVersion
}
