// Package fsys abstracts the file-system operations needed to index and read
// archives: random-access reads, metadata, directory listings and atomic
// writes for sidecar indexes.
//
// Two implementations are provided. [NewBilly] adapts any go-billy file
// system (the OS by default, an in-memory one in tests). [NewMmap] serves
// archive reads from memory-mapped files and delegates everything else to
// the OS.
package fsys

import (
	"io"
	"io/fs"
)

// File is an open archive handle. Reads may run concurrently.
type File interface {
	io.ReaderAt
	io.Closer
}

// FS is the file-system collaborator used by the registry.
type FS interface {
	// Open opens the named file for random-access reading.
	Open(name string) (File, error)

	// Stat returns metadata for the named file.
	Stat(name string) (fs.FileInfo, error)

	// ReadDir lists the named directory sorted by file name.
	ReadDir(name string) ([]fs.FileInfo, error)

	// ReadFile reads the whole named file.
	ReadFile(name string) ([]byte, error)

	// WriteFileAtomic replaces the named file with data so that concurrent
	// readers observe either the old or the new content.
	WriteFileAtomic(name string, data []byte) error
}
