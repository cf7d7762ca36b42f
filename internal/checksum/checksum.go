// Package checksum provides content digests used for template ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns the digest of data wrapped in quotes, the form HTTP
// conditional headers expect.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}
