//go:generate flatc --go --go-namespace fb -o internal schema/sidecar.fbs

// Package zipfs provides random-access, read-only lookup of files stored in
// one or more ZIP archives without extracting them.
//
// A [Registry] indexes the central directory of each loaded archive and
// answers reads by name: it finds the first archive that holds the name,
// re-reads the entry's local file header to locate the payload, and streams
// or buffers the payload through a raw DEFLATE decoder when needed. Buffered
// reads verify the content length and CRC-32 before returning. ZIP64
// archives are supported; multi-disk and encrypted archives are not.
//
// # Quick Start
//
//	reg := zipfs.New(zipfs.WithLogger(slog.Default()))
//	if err := reg.LoadDirectory("/srv/assets"); err != nil {
//	    return err
//	}
//	content, err := reg.ReadFile("textures/wall.png")
//
// Archives loaded earlier take precedence when several contain the same
// name. Loads must be serialized by the caller; reads may run concurrently
// with each other and with loads.
//
// # Sidecar indexes
//
// Loading with a cache writes the parsed entry table next to the archive
// ("assets.zip" gets "assets.zipidx"). Later loads reuse it when the
// archive size and table format still match, skipping the central
// directory scan:
//
//	src, err := reg.LoadArchive("/srv/assets/base.zip", true)
//
// # Content caching
//
// [WithContentCache] keeps decoded content in a [cache.Cache] such as
// cache/memory or cache/disk. Cached content is checked against the
// entry's CRC-32 on every hit.
package zipfs
