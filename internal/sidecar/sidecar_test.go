package sidecar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/testutil"
)

func testSource() *archive.Source {
	src := archive.NewSource("data/archive.zip", 123456)
	src.Entries["b/two.txt"] = archive.Entry{CRC32: 0xdeadbeef, LocalHeaderOffset: 1 << 40, UncompressedLength: 5 << 32}
	src.Entries["a/one.txt"] = archive.Entry{CRC32: 1, LocalHeaderOffset: 0, UncompressedLength: 10}
	src.Entries["empty"] = archive.Entry{}
	return src
}

func TestPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dir/name.zipidx", Path("dir/name.zip"))
	assert.Equal(t, "dir/name.v2.zipidx", Path("dir/name.v2.ZIP"))
	assert.Equal(t, "noext.zipidx", Path("noext"))
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	fsy := testutil.MemFS()
	src := testSource()
	require.NoError(t, Save(fsy, src))

	got, ok := Load(fsy, src.Path, src.ByteSize, archive.FormatVersion)
	require.True(t, ok)
	assert.Equal(t, src, got)

	data, err := fsy.ReadFile("data/archive.zipidx")
	require.NoError(t, err)
	assert.Equal(t, "ZIDX", string(data[4:8]))
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Encode(testSource()), Encode(testSource()))
}

func TestDecodeUsesGivenPath(t *testing.T) {
	t.Parallel()

	got, err := Decode(Encode(testSource()), "moved/archive.zip")
	require.NoError(t, err)
	assert.Equal(t, "moved/archive.zip", got.Path)
	assert.Equal(t, 3, got.Len())
}

func TestLoadMiss(t *testing.T) {
	t.Parallel()

	src := testSource()
	valid := Encode(src)

	tests := []struct {
		name          string
		data          []byte
		byteSize      int64
		formatVersion uint32
	}{
		{"size changed", valid, src.ByteSize + 1, archive.FormatVersion},
		{"format version changed", valid, src.ByteSize, archive.FormatVersion + 1},
		{"empty", []byte{}, src.ByteSize, archive.FormatVersion},
		{"wrong identifier", append(append([]byte(nil), valid[:4]...), append([]byte("NOPE"), valid[8:]...)...), src.ByteSize, archive.FormatVersion},
		{"truncated", valid[:len(valid)/2], src.ByteSize, archive.FormatVersion},
		{"garbage", []byte("\xff\xff\xff\x7fZIDX\xff\xff\xff\xff\xff\xff\xff\xff"), src.ByteSize, archive.FormatVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsy := testutil.MemFS()
			testutil.WriteFile(t, fsy, Path(src.Path), tt.data)

			got, ok := Load(fsy, src.Path, tt.byteSize, tt.formatVersion)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestLoadSiblingArchiveMisses(t *testing.T) {
	t.Parallel()

	fsy := testutil.MemFS()
	jar := archive.NewSource("d/a.jar", 100)
	jar.Entries["x"] = archive.Entry{CRC32: 7, LocalHeaderOffset: 0, UncompressedLength: 4}
	require.NoError(t, Save(fsy, jar))
	require.Equal(t, Path("d/a.jar"), Path("d/a.zip"))

	got, ok := Load(fsy, "d/a.zip", 100, archive.FormatVersion)
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = Load(fsy, "d/a.jar", 100, archive.FormatVersion)
	require.True(t, ok)
	assert.Equal(t, jar, got)
}

func TestLoadAfterMove(t *testing.T) {
	t.Parallel()

	fsy := testutil.MemFS()
	src := testSource()
	testutil.WriteFile(t, fsy, "moved/archive.zipidx", Encode(src))

	got, ok := Load(fsy, "moved/archive.zip", src.ByteSize, archive.FormatVersion)
	require.True(t, ok)
	assert.Equal(t, "moved/archive.zip", got.Path)
	assert.Equal(t, src.Entries, got.Entries)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, ok := Load(testutil.MemFS(), "nowhere.zip", 1, archive.FormatVersion)
	assert.False(t, ok)
}

func TestSaveError(t *testing.T) {
	t.Parallel()

	boom := errors.New("read-only")
	fsy := testutil.NewCountingFS(testutil.MemFS())
	fsy.FailOn("data/archive.zipidx", boom)

	err := Save(fsy, testSource())
	require.ErrorIs(t, err, boom)
}
