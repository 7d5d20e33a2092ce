package review

import (
	"github.com/minio/highwayhash"
)

// fingerprintKey is fixed so fingerprints are stable across processes and can
// be used in cache keys.
var fingerprintKey = []byte("FairReview-Intelligence-chunk-fp")

// Fingerprint is a 64-bit HighwayHash of content. It is a dedup key, not an
// identity: distinct texts may collide, and callers treat a collision as the
// same chunk.
func Fingerprint(content string) uint64 {
	return highwayhash.Sum64([]byte(content), fingerprintKey)
}

//Personal.AI order the ending
