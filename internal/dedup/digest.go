package dedup

import "github.com/cespare/xxhash/v2"

// Digest returns the 64-bit xxHash of body. It is deterministic and is used
// only for exact-match detection, not for security.
func Digest(body []byte) uint64 {
	return xxhash.Sum64(body)
}
