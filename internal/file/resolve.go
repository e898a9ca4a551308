package file

import (
	"fmt"

	"github.com/meigma/zipfs/fsys"
	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/sizing"
	"github.com/meigma/zipfs/internal/zipfmt"
)

// Resolve turns an indexed entry into the physical window of its payload by
// reading the entry's local file header.
//
// Entries with no content resolve to an empty stored window without
// touching the file system. The archive handle is closed before Resolve
// returns.
func Resolve(fsy fsys.FS, src *archive.Source, entry archive.Entry) (archive.Window, error) {
	w := archive.Window{
		FilePath:           src.Path,
		CRC32:              entry.CRC32,
		Method:             archive.MethodStore,
		UncompressedLength: entry.UncompressedLength,
	}
	if entry.UncompressedLength == 0 {
		return w, nil
	}

	headerOffset, err := sizing.ToInt64(entry.LocalHeaderOffset, archive.ErrSizeOverflow)
	if err != nil {
		return archive.Window{}, err
	}

	f, err := fsy.Open(src.Path)
	if err != nil {
		return archive.Window{}, err
	}
	defer f.Close()

	var fixed [zipfmt.LocalHeaderLen]byte
	if err := readFull(f, fixed[:], headerOffset); err != nil {
		return archive.Window{}, fmt.Errorf("%w: read at %d: %w", archive.ErrCorruptLocalHeader, headerOffset, err)
	}
	h, err := zipfmt.ParseLocalHeader(fixed[:])
	if err != nil {
		return archive.Window{}, err
	}

	if h.NeedsZip64() {
		extra := make([]byte, h.ExtraLen)
		extraOffset := headerOffset + zipfmt.LocalHeaderLen + int64(h.NameLen)
		if err := readFull(f, extra, extraOffset); err != nil {
			return archive.Window{}, fmt.Errorf("%w: read extra field: %w", archive.ErrCorruptLocalHeader, err)
		}
		if err := h.ApplyZip64(extra); err != nil {
			return archive.Window{}, err
		}
	}

	dataOffset, ok := h.DataOffset(entry.LocalHeaderOffset)
	if !ok {
		return archive.Window{}, archive.ErrSizeOverflow
	}
	w.Offset = dataOffset
	w.Method = archive.Method(h.Method)
	w.CompressedLength = h.CompressedLength

	if h.HasDataDescriptor() && w.CompressedLength == 0 {
		w.CompressedLength, err = descriptorLength(src, w)
		if err != nil {
			return archive.Window{}, err
		}
	}

	end, ok := sizing.AddUint64(w.Offset, w.CompressedLength)
	if !ok || end > uint64(src.ByteSize) { //nolint:gosec // ByteSize is non-negative
		return archive.Window{}, fmt.Errorf("%w: payload [%d, +%d) exceeds archive size %d",
			archive.ErrCorruptLocalHeader, w.Offset, w.CompressedLength, src.ByteSize)
	}
	return w, nil
}

// descriptorLength bounds a payload whose sizes were deferred to a data
// descriptor. Deflate streams terminate themselves, so the window runs to
// the end of the archive; stored payloads are exactly as long as the
// content.
func descriptorLength(src *archive.Source, w archive.Window) (uint64, error) {
	size := uint64(src.ByteSize) //nolint:gosec // ByteSize is non-negative
	if w.Offset > size {
		return 0, fmt.Errorf("%w: payload offset %d beyond archive size %d", archive.ErrCorruptLocalHeader, w.Offset, size)
	}
	if w.Method == archive.MethodDeflate {
		return size - w.Offset, nil
	}
	return w.UncompressedLength, nil
}
