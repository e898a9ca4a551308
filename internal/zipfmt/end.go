package zipfmt

// End holds the central directory location taken from the end of central
// directory record, superseded by the ZIP64 record when one is required.
type End struct {
	// DirectorySize is the central directory length in bytes.
	DirectorySize uint64

	// DirectoryOffset is the absolute offset of the first central
	// directory record.
	DirectoryOffset uint64

	// Zip64 reports whether the values came from the ZIP64 record.
	Zip64 bool
}

// FindEnd returns the position of the end of central directory record in
// tail, or -1 when no signature with room for a full record is present.
func FindEnd(tail []byte) int {
	return findSignature(tail, EndSignature, EndLen, len(tail))
}

// FindEnd64 returns the position of the ZIP64 end of central directory
// record in tail, searching only bytes before the regular record at endPos.
func FindEnd64(tail []byte, endPos int) int {
	return findSignature(tail, End64Signature, End64Len, endPos)
}

// ParseEnd decodes the 22-byte record at the start of b.
// b must hold at least EndLen bytes.
func ParseEnd(b []byte) End {
	buf := readBuf(b[:EndLen])
	buf.skip(4) // signature
	buf.skip(2) // number of this disk
	buf.skip(2) // disk with the central directory
	buf.skip(2) // records on this disk
	buf.skip(2) // total records
	size := buf.uint32()
	offset := buf.uint32()
	return End{
		DirectorySize:   uint64(size),
		DirectoryOffset: uint64(offset),
	}
}

// NeedsZip64 reports whether the central directory offset is the ZIP64
// sentinel, meaning the real location lives in the ZIP64 record.
func (e End) NeedsZip64() bool {
	return !e.Zip64 && e.DirectoryOffset == Sentinel32
}

// ParseEnd64 decodes the 56-byte ZIP64 record at the start of b.
// b must hold at least End64Len bytes.
func ParseEnd64(b []byte) End {
	buf := readBuf(b[:End64Len])
	buf.skip(4) // signature
	buf.skip(8) // size of this record
	buf.skip(2) // version made by
	buf.skip(2) // version needed
	buf.skip(4) // number of this disk
	buf.skip(4) // disk with the central directory
	buf.skip(8) // records on this disk
	buf.skip(8) // total records
	size := buf.uint64()
	offset := buf.uint64()
	return End{
		DirectorySize:   size,
		DirectoryOffset: offset,
		Zip64:           true,
	}
}
