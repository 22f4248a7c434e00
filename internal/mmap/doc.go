// Package mmap provides portable read-only memory mapping for shard and
// metadata files.
//
// Mappings are shard-local and released deterministically: the loader opens a
// mapping for the duration of one shard's processing window and closes it when
// extraction completes. Slices handed out by Bytes alias the mapped region and
// become invalid after Close.
package mmap
