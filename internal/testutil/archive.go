package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"
)

// Compression methods understood by the archive builder.
const (
	Store   uint16 = 0
	Deflate uint16 = 8
)

// Zip64Fields selects which 32-bit fields are written as the 0xFFFFFFFF
// sentinel with their real values moved into the ZIP64 extra block.
type Zip64Fields struct {
	Uncompressed bool
	Compressed   bool
	Offset       bool
}

func (z Zip64Fields) any() bool {
	return z.Uncompressed || z.Compressed || z.Offset
}

// TestEntry describes one record of a test archive.
type TestEntry struct {
	Name    string
	Content []byte
	Method  uint16

	// Dir writes a directory record with a Unix S_IFDIR mode.
	Dir bool
	// DOSDir writes a directory record using only the MS-DOS attribute.
	DOSDir bool

	// CentralZip64 moves the selected fields of the central directory
	// record into a ZIP64 extra block.
	CentralZip64 Zip64Fields
	// LocalZip64 moves the selected length fields of the local header into
	// a ZIP64 extra block. Offset is ignored.
	LocalZip64 Zip64Fields

	// LeadingExtra is written before any ZIP64 block in both extra fields.
	LeadingExtra []byte
	// Comment is the per-entry central directory comment.
	Comment string

	// CRC32 overrides the recorded checksum when non-nil.
	CRC32 *uint32
	// UncompressedLength overrides the recorded uncompressed length when non-nil.
	UncompressedLength *uint64
	// RawMethod overrides the method written to the local header when non-zero.
	RawMethod uint16
}

// ArchiveOptions controls archive-level layout.
type ArchiveOptions struct {
	// Zip64End writes a ZIP64 end record and locator and sets the regular
	// end record's directory offset to the sentinel.
	Zip64End bool
	// Comment is the archive comment stored after the end record.
	Comment string
	// Prefix is written before the first local header.
	Prefix []byte
}

// Layout reports where the builder placed one entry.
type Layout struct {
	Name              string
	LocalHeaderOffset uint64
	DataOffset        uint64
	CompressedLength  uint64
	CRC32             uint32
}

// TestArchive is a built archive plus the positions of its records.
type TestArchive struct {
	Data            []byte
	Entries         []Layout
	DirectoryOffset uint64
	DirectorySize   uint64
}

// Entry returns the layout of the last entry named name.
func (a *TestArchive) Entry(tb testing.TB, name string) Layout {
	tb.Helper()
	for i := len(a.Entries) - 1; i >= 0; i-- {
		if a.Entries[i].Name == name {
			return a.Entries[i]
		}
	}
	tb.Fatalf("entry %q not in test archive", name)
	return Layout{}
}

// BuildTestArchive writes entries into a ZIP archive with an exact,
// predictable byte layout.
func BuildTestArchive(tb testing.TB, entries []TestEntry, opts ArchiveOptions) *TestArchive {
	tb.Helper()

	var out bytes.Buffer
	out.Write(opts.Prefix)

	type written struct {
		entry        TestEntry
		payload      []byte
		crc          uint32
		uncompressed uint64
		offset       uint64
	}
	records := make([]written, 0, len(entries))
	layouts := make([]Layout, 0, len(entries))

	for _, e := range entries {
		payload := compress(tb, e)
		crc := crc32.ChecksumIEEE(e.Content)
		if e.CRC32 != nil {
			crc = *e.CRC32
		}
		uncompressed := uint64(len(e.Content))
		if e.UncompressedLength != nil {
			uncompressed = *e.UncompressedLength
		}
		method := e.Method
		if e.RawMethod != 0 {
			method = e.RawMethod
		}

		offset := uint64(out.Len())
		extra := append([]byte(nil), e.LeadingExtra...)
		localZ := Zip64Fields{Uncompressed: e.LocalZip64.Uncompressed, Compressed: e.LocalZip64.Compressed}
		extra = append(extra, zip64Extra(localZ, uncompressed, uint64(len(payload)), 0)...)

		var h [30]byte
		binary.LittleEndian.PutUint32(h[0:], 0x04034b50)
		binary.LittleEndian.PutUint16(h[4:], versionNeeded(localZ))
		binary.LittleEndian.PutUint16(h[8:], method)
		binary.LittleEndian.PutUint16(h[12:], 0x21) // 1980-01-01
		binary.LittleEndian.PutUint32(h[14:], crc)
		binary.LittleEndian.PutUint32(h[18:], field32(localZ.Compressed, uint64(len(payload))))
		binary.LittleEndian.PutUint32(h[22:], field32(localZ.Uncompressed, uncompressed))
		binary.LittleEndian.PutUint16(h[26:], uint16(len(e.Name)))
		binary.LittleEndian.PutUint16(h[28:], uint16(len(extra)))
		out.Write(h[:])
		out.WriteString(e.Name)
		out.Write(extra)
		dataOffset := uint64(out.Len())
		out.Write(payload)

		records = append(records, written{entry: e, payload: payload, crc: crc, uncompressed: uncompressed, offset: offset})
		layouts = append(layouts, Layout{
			Name:              e.Name,
			LocalHeaderOffset: offset,
			DataOffset:        dataOffset,
			CompressedLength:  uint64(len(payload)),
			CRC32:             crc,
		})
	}

	dirOffset := uint64(out.Len())
	for _, r := range records {
		e := r.entry
		z := e.CentralZip64
		extra := append([]byte(nil), e.LeadingExtra...)
		extra = append(extra, zip64Extra(z, r.uncompressed, uint64(len(r.payload)), r.offset)...)

		var h [46]byte
		binary.LittleEndian.PutUint32(h[0:], 0x02014b50)
		binary.LittleEndian.PutUint16(h[4:], 0x031e) // Unix, 3.0
		binary.LittleEndian.PutUint16(h[6:], versionNeeded(z))
		binary.LittleEndian.PutUint16(h[10:], e.Method)
		binary.LittleEndian.PutUint16(h[14:], 0x21)
		binary.LittleEndian.PutUint32(h[16:], r.crc)
		binary.LittleEndian.PutUint32(h[20:], field32(z.Compressed, uint64(len(r.payload))))
		binary.LittleEndian.PutUint32(h[24:], field32(z.Uncompressed, r.uncompressed))
		binary.LittleEndian.PutUint16(h[28:], uint16(len(e.Name)))
		binary.LittleEndian.PutUint16(h[30:], uint16(len(extra)))
		binary.LittleEndian.PutUint16(h[32:], uint16(len(e.Comment)))
		binary.LittleEndian.PutUint32(h[38:], externalAttrs(e))
		binary.LittleEndian.PutUint32(h[42:], field32(z.Offset, r.offset))
		out.Write(h[:])
		out.WriteString(e.Name)
		out.Write(extra)
		out.WriteString(e.Comment)
	}
	dirSize := uint64(out.Len()) - dirOffset

	count := uint64(len(records))
	if opts.Zip64End {
		end64Offset := uint64(out.Len())
		var r [56]byte
		binary.LittleEndian.PutUint32(r[0:], 0x06064b50)
		binary.LittleEndian.PutUint64(r[4:], 44)
		binary.LittleEndian.PutUint16(r[12:], 0x031e)
		binary.LittleEndian.PutUint16(r[14:], 45)
		binary.LittleEndian.PutUint64(r[24:], count)
		binary.LittleEndian.PutUint64(r[32:], count)
		binary.LittleEndian.PutUint64(r[40:], dirSize)
		binary.LittleEndian.PutUint64(r[48:], dirOffset)
		out.Write(r[:])

		var loc [20]byte
		binary.LittleEndian.PutUint32(loc[0:], 0x07064b50)
		binary.LittleEndian.PutUint64(loc[8:], end64Offset)
		binary.LittleEndian.PutUint32(loc[16:], 1)
		out.Write(loc[:])
	}

	var end [22]byte
	binary.LittleEndian.PutUint32(end[0:], 0x06054b50)
	binary.LittleEndian.PutUint16(end[8:], uint16(min(count, 0xffff)))
	binary.LittleEndian.PutUint16(end[10:], uint16(min(count, 0xffff)))
	binary.LittleEndian.PutUint32(end[12:], field32(opts.Zip64End, dirSize))
	binary.LittleEndian.PutUint32(end[16:], field32(opts.Zip64End, dirOffset))
	binary.LittleEndian.PutUint16(end[20:], uint16(len(opts.Comment)))
	out.Write(end[:])
	out.WriteString(opts.Comment)

	return &TestArchive{
		Data:            out.Bytes(),
		Entries:         layouts,
		DirectoryOffset: dirOffset,
		DirectorySize:   dirSize,
	}
}

func compress(tb testing.TB, e TestEntry) []byte {
	tb.Helper()
	if e.Method != Deflate {
		return e.Content
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		tb.Fatalf("create deflate writer: %v", err)
	}
	if _, err := w.Write(e.Content); err != nil {
		tb.Fatalf("deflate %q: %v", e.Name, err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("close deflate writer: %v", err)
	}
	return buf.Bytes()
}

func zip64Extra(z Zip64Fields, uncompressed, compressed, offset uint64) []byte {
	if !z.any() {
		return nil
	}
	var data []byte
	if z.Uncompressed {
		data = binary.LittleEndian.AppendUint64(data, uncompressed)
	}
	if z.Compressed {
		data = binary.LittleEndian.AppendUint64(data, compressed)
	}
	if z.Offset {
		data = binary.LittleEndian.AppendUint64(data, offset)
	}
	b := binary.LittleEndian.AppendUint16(nil, 0x0001)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(data)))
	return append(b, data...)
}

func field32(sentinel bool, v uint64) uint32 {
	if sentinel {
		return 0xffffffff
	}
	return uint32(v) //nolint:gosec // test archives stay below 4 GiB
}

func versionNeeded(z Zip64Fields) uint16 {
	if z.any() {
		return 45
	}
	return 20
}

func externalAttrs(e TestEntry) uint32 {
	switch {
	case e.Dir:
		return 0o040755 << 16
	case e.DOSDir:
		return 0x10
	default:
		return 0o100644 << 16
	}
}

// Uint32 returns a pointer to v for TestEntry overrides.
func Uint32(v uint32) *uint32 { return &v }

// Uint64 returns a pointer to v for TestEntry overrides.
func Uint64(v uint64) *uint64 { return &v }
