package fsys

import (
	"io/fs"

	"golang.org/x/exp/mmap"
)

// Mmap serves archive reads from memory-mapped files. Metadata, listings
// and writes go to the host file system.
type Mmap struct {
	*Billy
}

var _ FS = (*Mmap)(nil)

// NewMmap returns a host file system whose Open maps files into memory.
func NewMmap() *Mmap {
	return &Mmap{Billy: NewBilly(nil)}
}

// Open maps name read-only into memory.
func (m *Mmap) Open(name string) (File, error) {
	r, err := mmap.Open(name)
	if err != nil {
		return nil, &fs.PathError{Op: "mmap", Path: name, Err: err}
	}
	return r, nil
}
