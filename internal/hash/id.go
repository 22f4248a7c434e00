package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
//
// The dataset manager keys loaded datasets by the hash of their directory
// path, giving a stable 64-bit handle without holding the path itself hot.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
