// Package sidecar persists archive entry tables next to their archives so
// later loads can skip the central directory scan.
//
// A sidecar for "dir/name.zip" lives at "dir/name.zipidx" and holds a
// FlatBuffers-encoded fb.Archive table. Sidecars are a pure cache: any
// failure to read, decode or validate one is reported as a miss.
package sidecar

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/zipfs/fsys"
	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/fb"
)

// Extension is the file extension of sidecar files.
const Extension = ".zipidx"

// Path returns the sidecar location for archivePath: the same directory
// and base name with the extension replaced.
func Path(archivePath string) string {
	return strings.TrimSuffix(archivePath, filepath.Ext(archivePath)) + Extension
}

// Load reads the sidecar for archivePath and returns its entry table.
//
// ok is false when the sidecar is missing, unreadable, malformed, or was
// written for an archive of a different size or table layout. Archives
// differing only in extension share a sidecar location, so a sidecar
// written for another file name is a miss as well.
func Load(fsy fsys.FS, archivePath string, byteSize int64, formatVersion uint32) (*archive.Source, bool) {
	data, err := fsy.ReadFile(Path(archivePath))
	if err != nil {
		return nil, false
	}
	src, storedPath, err := decode(data, archivePath)
	if err != nil {
		return nil, false
	}
	if filepath.Base(storedPath) != filepath.Base(archivePath) {
		return nil, false
	}
	if !src.Matches(byteSize, formatVersion) {
		return nil, false
	}
	return src, true
}

// Save encodes src and atomically writes it to the sidecar location.
func Save(fsy fsys.FS, src *archive.Source) error {
	if err := fsy.WriteFileAtomic(Path(src.Path), Encode(src)); err != nil {
		return fmt.Errorf("write sidecar for %s: %w", src.Path, err)
	}
	return nil
}

// Encode serializes src. Entries are written sorted by name so equal
// tables produce identical bytes.
func Encode(src *archive.Source) []byte {
	names := make([]string, 0, len(src.Entries))
	for name := range src.Entries {
		names = append(names, name)
	}
	slices.SortFunc(names, cmp.Compare[string])

	builder := flatbuffers.NewBuilder(64 + len(names)*64)

	// Build entries in reverse order (FlatBuffers requirement)
	offsets := make([]flatbuffers.UOffsetT, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		e := src.Entries[names[i]]
		nameOffset := builder.CreateString(names[i])

		fb.EntryStart(builder)
		fb.EntryAddName(builder, nameOffset)
		fb.EntryAddCrc32(builder, e.CRC32)
		fb.EntryAddLocalHeaderOffset(builder, e.LocalHeaderOffset)
		fb.EntryAddUncompressedLength(builder, e.UncompressedLength)
		offsets[i] = fb.EntryEnd(builder)
	}

	fb.ArchiveStartEntriesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	entries := builder.EndVector(len(offsets))
	path := builder.CreateString(src.Path)

	fb.ArchiveStart(builder)
	fb.ArchiveAddFormatVersion(builder, src.FormatVersion)
	fb.ArchiveAddByteSize(builder, uint64(src.ByteSize)) //nolint:gosec // sizes are non-negative
	fb.ArchiveAddPath(builder, path)
	fb.ArchiveAddEntries(builder, entries)
	fb.FinishArchiveBuffer(builder, fb.ArchiveEnd(builder))

	return builder.FinishedBytes()
}

// Decode parses a sidecar blob into a Source for archivePath.
//
// The returned Source always uses archivePath so an archive moved to
// another directory together with its sidecar still loads. Load also
// compares the stored file name.
func Decode(data []byte, archivePath string) (*archive.Source, error) {
	src, _, err := decode(data, archivePath)
	return src, err
}

// decode is Decode that also reports the archive path stored in the
// sidecar.
func decode(data []byte, archivePath string) (src *archive.Source, storedPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, storedPath = nil, ""
			err = fmt.Errorf("zipfs: failed to parse sidecar: %v", r)
		}
	}()
	if len(data) < 8 {
		return nil, "", errors.New("zipfs: sidecar too short")
	}
	if id := string(data[4:8]); id != fb.ArchiveIdentifier() {
		return nil, "", fmt.Errorf("zipfs: sidecar identifier %q, want %q", id, fb.ArchiveIdentifier())
	}

	root := fb.GetRootAsArchive(data, 0)
	byteSize := root.ByteSize()
	if byteSize > 1<<63-1 {
		return nil, "", archive.ErrSizeOverflow
	}

	n := root.EntriesLength()
	if n > len(data)/4 {
		return nil, "", fmt.Errorf("zipfs: sidecar claims %d entries in %d bytes", n, len(data))
	}
	src = &archive.Source{
		Path:          archivePath,
		ByteSize:      int64(byteSize),
		FormatVersion: root.FormatVersion(),
		Entries:       make(map[string]archive.Entry, n),
	}

	var e fb.Entry
	for i := range n {
		if !root.Entries(&e, i) {
			return nil, "", fmt.Errorf("zipfs: sidecar entry %d unreadable", i)
		}
		src.Entries[string(e.Name())] = archive.Entry{
			CRC32:              e.Crc32(),
			LocalHeaderOffset:  e.LocalHeaderOffset(),
			UncompressedLength: e.UncompressedLength(),
		}
	}
	return src, string(root.Path()), nil
}
