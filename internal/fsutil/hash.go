package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashPrefix tags every content hash with its algorithm.
const HashPrefix = "sha256:"

// HashContent returns the prefixed hex digest of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return HashPrefix + hex.EncodeToString(sum[:])
}

// IsContentHash reports whether s looks like a value produced by HashContent.
func IsContentHash(s string) bool {
	digest, ok := strings.CutPrefix(s, HashPrefix)
	if !ok || len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
