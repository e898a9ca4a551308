// Package cache provides optional caching of decoded entry content.
//
// Keys identify an entry of a specific archive generation: the archive
// path, its size, the entry name and the entry's recorded CRC-32 are
// hashed together with [Key]. Because a key does not prove the cached
// bytes are intact, callers re-check the CRC-32 of every hit.
package cache

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Cache stores decoded entry content.
//
// Implementations must be safe for concurrent use and handle their own
// size limits and eviction policies.
type Cache interface {
	// Get retrieves content stored under key.
	// Returns nil, false if the content is not cached.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores content under key.
	Put(key digest.Digest, content []byte) error

	// Delete removes content stored under key. Deleting a missing key is
	// not an error.
	Delete(key digest.Digest) error
}

// Key derives the cache key of entry name in the archive at archivePath.
func Key(archivePath string, byteSize int64, name string, crc uint32) digest.Digest {
	return digest.FromString(fmt.Sprintf("%s\x00%d\x00%s\x00%08x", archivePath, byteSize, name, crc))
}
