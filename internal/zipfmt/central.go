package zipfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/meigma/zipfs/internal/archive"
)

// ErrIncomplete is returned when a buffer ends before the record it
// starts. Chunked readers treat it as "carry the bytes into the next chunk".
var ErrIncomplete = errors.New("zipfmt: incomplete record")

// CentralRecord is the subset of a central directory file header needed to
// index an entry.
type CentralRecord struct {
	Name               string
	CRC32              uint32
	CompressedLength   uint64
	UncompressedLength uint64
	LocalHeaderOffset  uint64
	ExternalAttrs      uint32

	// Size is the full on-disk length of the record.
	Size int
}

// IsDir reports whether the record describes a directory: a name ending
// in a slash, the MS-DOS directory attribute or a Unix S_IFDIR mode.
// Writers such as archive/zip leave the attributes zero for directories,
// so the name alone is sufficient.
func (r *CentralRecord) IsDir() bool {
	if strings.HasSuffix(r.Name, "/") {
		return true
	}
	if r.ExternalAttrs&dosDirAttr != 0 {
		return true
	}
	return (r.ExternalAttrs>>16)&unixTypeMask == unixTypeDir
}

// Entry converts the record into an index entry.
func (r *CentralRecord) Entry() archive.Entry {
	return archive.Entry{
		CRC32:              r.CRC32,
		LocalHeaderOffset:  r.LocalHeaderOffset,
		UncompressedLength: r.UncompressedLength,
	}
}

// ParseCentralRecord decodes the central directory record at the start of b.
//
// It returns ErrIncomplete when b is shorter than the record, and an error
// wrapping archive.ErrCorruptCentralDirectory when the signature or the
// ZIP64 extra field is malformed. Directory records are decoded like any
// other record; callers decide whether to index them.
func ParseCentralRecord(b []byte) (CentralRecord, error) {
	if len(b) < 4 {
		return CentralRecord{}, ErrIncomplete
	}
	if sig := binary.LittleEndian.Uint32(b); sig != CentralHeaderSignature {
		return CentralRecord{}, fmt.Errorf("%w: bad record signature %#08x", archive.ErrCorruptCentralDirectory, sig)
	}
	if len(b) < CentralHeaderLen {
		return CentralRecord{}, ErrIncomplete
	}

	buf := readBuf(b[:CentralHeaderLen])
	buf.skip(4) // signature
	buf.skip(2) // version made by
	buf.skip(2) // version needed
	buf.skip(2) // flags
	buf.skip(2) // method
	buf.skip(4) // modified time and date
	crc := buf.uint32()
	compressed := buf.uint32()
	uncompressed := buf.uint32()
	nameLen := int(buf.uint16())
	extraLen := int(buf.uint16())
	commentLen := int(buf.uint16())
	buf.skip(2) // disk number start
	buf.skip(2) // internal attributes
	external := buf.uint32()
	offset := buf.uint32()

	size := CentralHeaderLen + nameLen + extraLen + commentLen
	if len(b) < size {
		return CentralRecord{}, ErrIncomplete
	}

	rest := readBuf(b[CentralHeaderLen:size])
	name := rest.sub(nameLen)
	extra := rest.sub(extraLen)

	rec := CentralRecord{
		Name:               string(name),
		CRC32:              crc,
		CompressedLength:   uint64(compressed),
		UncompressedLength: uint64(uncompressed),
		LocalHeaderOffset:  uint64(offset),
		ExternalAttrs:      external,
		Size:               size,
	}
	if rec.IsDir() {
		return rec, nil
	}

	if uncompressed == Sentinel32 || compressed == Sentinel32 || offset == Sentinel32 {
		if err := rec.applyZip64(extra, uncompressed, compressed, offset); err != nil {
			return CentralRecord{}, fmt.Errorf("%w: %q: %w", archive.ErrCorruptCentralDirectory, rec.Name, err)
		}
	}
	return rec, nil
}

// applyZip64 replaces sentinel fields with values from the ZIP64 block in
// the fixed order uncompressed, compressed, local header offset. Only
// fields holding the sentinel consume 8 bytes.
func (r *CentralRecord) applyZip64(extra []byte, uncompressed, compressed, offset uint32) error {
	z, ok := findZip64(extra)
	if !ok {
		return errMissingZip64
	}
	if uncompressed == Sentinel32 {
		if len(z) < 8 {
			return errShortZip64
		}
		r.UncompressedLength = z.uint64()
	}
	if compressed == Sentinel32 {
		if len(z) < 8 {
			return errShortZip64
		}
		r.CompressedLength = z.uint64()
	}
	if offset == Sentinel32 {
		if len(z) < 8 {
			return errShortZip64
		}
		r.LocalHeaderOffset = z.uint64()
	}
	return nil
}
