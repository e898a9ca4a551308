package zipfs

import (
	"bytes"
	"io/fs"
	"path"

	"github.com/meigma/zipfs/internal/file"
)

// cachedFile serves verified content from the content cache as fs.File.
type cachedFile struct {
	*bytes.Reader
	info *file.Info
}

func newCachedFile(name string, content []byte) (*cachedFile, error) {
	info, err := file.NewInfo(path.Base(name), uint64(len(content)))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &cachedFile{
		Reader: bytes.NewReader(content),
		info:   info,
	}, nil
}

func (f *cachedFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *cachedFile) Close() error { return nil }
