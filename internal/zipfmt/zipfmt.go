// Package zipfmt decodes the fixed little-endian ZIP records needed to
// index an archive and locate entry payloads: the end of central directory
// record, its ZIP64 counterpart, central directory file headers, local file
// headers and the ZIP64 extended information extra field.
package zipfmt

import "encoding/binary"

// Record signatures.
const (
	LocalHeaderSignature   = 0x04034b50
	CentralHeaderSignature = 0x02014b50
	EndSignature           = 0x06054b50
	End64Signature         = 0x06064b50
)

// Fixed record lengths, excluding variable-length trailers.
const (
	LocalHeaderLen   = 30
	CentralHeaderLen = 46
	EndLen           = 22
	End64Len         = 56
)

const (
	// Sentinel32 marks a 32-bit field whose value lives in the ZIP64 extra field.
	Sentinel32 = 0xffffffff

	// Zip64ExtraID is the header ID of the ZIP64 extended information block.
	Zip64ExtraID = 0x0001

	flagDataDescriptor = 0x8

	dosDirAttr   = 0x10
	unixTypeMask = 0xf000
	unixTypeDir  = 0x4000
)

// readBuf is a little-endian cursor over a byte slice.
type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func (b *readBuf) skip(n int) {
	*b = (*b)[n:]
}

func (b *readBuf) sub(n int) readBuf {
	b2 := (*b)[:n]
	*b = (*b)[n:]
	return b2
}

// findSignature scans b backward for sig, starting at the last position
// where a record of recLen bytes still fits before limit.
func findSignature(b []byte, sig uint32, recLen, limit int) int {
	if limit > len(b) {
		limit = len(b)
	}
	for i := limit - recLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(b[i:]) == sig {
			return i
		}
	}
	return -1
}
