package zipfs

import "github.com/meigma/zipfs/internal/archive"

// Source is the name index of one loaded archive.
type Source = archive.Source

// Entry locates a single file record inside an archive.
type Entry = archive.Entry

// Window is the physical location of one entry's payload.
type Window = archive.Window

// Method is the compression method of an entry payload.
type Method = archive.Method

// Compression methods.
const (
	MethodStore   = archive.MethodStore
	MethodDeflate = archive.MethodDeflate
)

// FormatVersion identifies the layout of persisted sidecar indexes.
const FormatVersion = archive.FormatVersion
