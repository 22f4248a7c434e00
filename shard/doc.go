// Package shard discovers, indexes and reads the shard files of a trajectory
// dataset.
//
// Discovery enumerates shard-<N>.bin files in a dataset directory, validates
// each header and builds a table mapping shard file index to the absolute time
// range the shard covers. The table is rebuilt on every load call; it is not
// cached.
//
// Reader opens a single shard as a read-only memory mapping for zero-copy
// random access to its fixed-stride entries. Mappings are shard-local: the
// assembly engine opens a Reader for one shard's processing window and closes
// it when extraction completes, so no shard stays mapped longer than needed.
//
// The per-shard entry index is deliberately restricted to the requested
// trajectory IDs: the scan reads only the leading 8-byte ID of each
// fixed-stride record and records positions for requested IDs, skipping
// everything else. Indexing the full entry list would be wasted work on large
// shards.
package shard
