package file

import (
	"bytes"
	"testing"

	kzip "github.com/klauspost/compress/zip"

	"github.com/meigma/zipfs/internal/archive"
	"github.com/meigma/zipfs/internal/scan"
	"github.com/meigma/zipfs/internal/testutil"
)

const archivePath = "archives/test.zip"

type fixture struct {
	fsys    *testutil.CountingFS
	source  *archive.Source
	archive *testutil.TestArchive
}

func newFixture(t *testing.T, entries []testutil.TestEntry, opts testutil.ArchiveOptions) *fixture {
	t.Helper()

	a := testutil.BuildTestArchive(t, entries, opts)
	mem := testutil.MemFS()
	testutil.WriteFile(t, mem, archivePath, a.Data)

	src := archive.NewSource(archivePath, int64(len(a.Data)))
	for i, e := range entries {
		length := uint64(len(e.Content))
		if e.UncompressedLength != nil {
			length = *e.UncompressedLength
		}
		src.Entries[e.Name] = archive.Entry{
			CRC32:              a.Entries[i].CRC32,
			LocalHeaderOffset:  a.Entries[i].LocalHeaderOffset,
			UncompressedLength: length,
		}
	}
	return &fixture{fsys: testutil.NewCountingFS(mem), source: src, archive: a}
}

func (f *fixture) window(t *testing.T, name string) archive.Window {
	t.Helper()
	e, ok := f.source.Lookup(name)
	if !ok {
		t.Fatalf("entry %q not indexed", name)
	}
	w, err := Resolve(f.fsys, f.source, e)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", name, err)
	}
	return w
}

// writeStdZip writes files with a streaming ZIP writer, which defers sizes
// to data descriptors.
func writeStdZip(t *testing.T, files map[string][]byte, method uint16) *fixture {
	t.Helper()

	var buf bytes.Buffer
	zw := kzip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.CreateHeader(&kzip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("CreateHeader(%q) error = %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("Write(%q) error = %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mem := testutil.MemFS()
	testutil.WriteFile(t, mem, archivePath, buf.Bytes())
	src, err := scan.Scan(bytes.NewReader(buf.Bytes()), int64(buf.Len()), archivePath)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return &fixture{fsys: testutil.NewCountingFS(mem), source: src}
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/13)
	}
	return b
}
