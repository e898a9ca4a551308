package zipfmt

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/zipfs/internal/archive"
)

// LocalHeader is the subset of a local file header needed to locate and
// decode an entry's payload. The local header is authoritative for the
// compression method and compressed length.
type LocalHeader struct {
	Flags              uint16
	Method             uint16
	CompressedLength   uint64
	UncompressedLength uint64
	NameLen            uint16
	ExtraLen           uint16

	compressedSentinel   bool
	uncompressedSentinel bool
}

// ParseLocalHeader decodes the 30-byte fixed part of a local file header.
func ParseLocalHeader(b []byte) (LocalHeader, error) {
	if len(b) < LocalHeaderLen {
		return LocalHeader{}, fmt.Errorf("%w: short header (%d bytes)", archive.ErrCorruptLocalHeader, len(b))
	}
	if sig := binary.LittleEndian.Uint32(b); sig != LocalHeaderSignature {
		return LocalHeader{}, fmt.Errorf("%w: bad signature %#08x", archive.ErrCorruptLocalHeader, sig)
	}

	buf := readBuf(b[:LocalHeaderLen])
	buf.skip(4) // signature
	buf.skip(2) // version needed
	flags := buf.uint16()
	method := buf.uint16()
	buf.skip(4) // modified time and date
	buf.skip(4) // crc32, taken from the central directory
	compressed := buf.uint32()
	uncompressed := buf.uint32()
	nameLen := buf.uint16()
	extraLen := buf.uint16()

	return LocalHeader{
		Flags:                flags,
		Method:               method,
		CompressedLength:     uint64(compressed),
		UncompressedLength:   uint64(uncompressed),
		NameLen:              nameLen,
		ExtraLen:             extraLen,
		compressedSentinel:   compressed == Sentinel32,
		uncompressedSentinel: uncompressed == Sentinel32,
	}, nil
}

// NeedsZip64 reports whether either nominal length is the ZIP64 sentinel.
func (h *LocalHeader) NeedsZip64() bool {
	return h.compressedSentinel || h.uncompressedSentinel
}

// HasDataDescriptor reports whether sizes were deferred to a data
// descriptor written after the payload.
func (h *LocalHeader) HasDataDescriptor() bool {
	return h.Flags&flagDataDescriptor != 0
}

// ApplyZip64 overrides sentinel lengths from the local ZIP64 block.
//
// A local block normally carries both sizes, uncompressed then compressed,
// whichever of them hold the sentinel. A block too short for both is read
// like a central one: only sentinel fields consume 8 bytes, uncompressed
// first.
func (h *LocalHeader) ApplyZip64(extra []byte) error {
	z, ok := findZip64(extra)
	if !ok {
		return fmt.Errorf("%w: %w", archive.ErrCorruptLocalHeader, errMissingZip64)
	}
	if len(z) >= 16 {
		uncompressed, compressed := z.uint64(), z.uint64()
		if h.uncompressedSentinel {
			h.UncompressedLength = uncompressed
		}
		if h.compressedSentinel {
			h.CompressedLength = compressed
		}
		return nil
	}
	if h.uncompressedSentinel {
		if len(z) < 8 {
			return fmt.Errorf("%w: %w", archive.ErrCorruptLocalHeader, errShortZip64)
		}
		h.UncompressedLength = z.uint64()
	}
	if h.compressedSentinel {
		if len(z) < 8 {
			return fmt.Errorf("%w: %w", archive.ErrCorruptLocalHeader, errShortZip64)
		}
		h.CompressedLength = z.uint64()
	}
	return nil
}

// DataOffset returns the absolute payload offset for a header located at
// headerOffset. ok is false on overflow.
func (h *LocalHeader) DataOffset(headerOffset uint64) (uint64, bool) {
	off := headerOffset + LocalHeaderLen + uint64(h.NameLen) + uint64(h.ExtraLen)
	if off < headerOffset {
		return 0, false
	}
	return off, true
}
