// Package hashaddr implements the content addresser: a single, deterministic
// hash used both for whole-file and line-range optimistic concurrency.
package hashaddr

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase, 64-character hex SHA-256 digest of the UTF-8
// bytes of s. Two callers computing the hash of identical strings always
// get identical digests, which is what lets a client recompute file_hash
// and range_hash independently from a prior read response.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EmptyHash is Hash(""), the sentinel expected_file_hash for creating a
// brand-new file and the file_hash of a file whose content was fully
// deleted.
var EmptyHash = Hash("")
