package fsys_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zipfs/fsys"
)

func TestMmapMatchesBilly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	data := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	for _, fsy := range []fsys.FS{fsys.NewMmap(), fsys.NewBilly(nil)} {
		f, err := fsy.Open(path)
		require.NoError(t, err)

		buf := make([]byte, 5)
		_, err = f.ReadAt(buf, 16)
		require.NoError(t, err)
		assert.Equal(t, "fox j", string(buf))
		require.NoError(t, f.Close())
	}
}

func TestMmapWriteAndList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsy := fsys.NewMmap()
	path := filepath.Join(dir, "archive.zipidx")

	require.NoError(t, fsy.WriteFileAtomic(path, []byte("index")))

	infos, err := fsy.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "archive.zipidx", infos[0].Name())
}

func TestMmapOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := fsys.NewMmap().Open(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
