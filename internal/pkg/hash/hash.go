package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256 returns the hex digest of s. Used as the catalog cache key for a
// resolved video number so differently-formatted links to the same video
// collide.
func Sha256(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
