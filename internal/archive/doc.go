// Package archive holds the data model shared by the scanner, the sidecar
// cache, the resolver and the registry: per-archive entry tables, per-read
// data windows and the sentinel errors surfaced to callers.
package archive
