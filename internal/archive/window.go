package archive

// Method is the compression method declared by a local file header.
type Method uint16

const (
	// MethodStore marks uncompressed payloads.
	MethodStore Method = 0

	// MethodDeflate marks raw DEFLATE payloads.
	MethodDeflate Method = 8
)

// String returns the human-readable name of the method.
func (m Method) String() string {
	switch m {
	case MethodStore:
		return "store"
	case MethodDeflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// Supported reports whether payloads using m can be decoded.
func (m Method) Supported() bool {
	return m == MethodStore || m == MethodDeflate
}

// Window is the physical location of one entry's payload, produced per read
// by the resolver and never stored.
type Window struct {
	// FilePath is the archive holding the payload.
	FilePath string

	// CRC32 is the expected checksum of the uncompressed content.
	CRC32 uint32

	// Offset is the absolute offset of the first payload byte.
	Offset uint64

	// Method is the compression method from the local file header.
	Method Method

	// CompressedLength is the number of payload bytes on disk.
	CompressedLength uint64

	// UncompressedLength is the expected size of the decoded content.
	UncompressedLength uint64
}

// Empty reports whether the window carries no payload bytes.
func (w Window) Empty() bool {
	return w.CompressedLength == 0
}
