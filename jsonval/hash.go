package jsonval

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of the canonical serialized
// form of v. Canonicalization sorts object keys at every level and uses
// stable number and string formatting, so two structurally equal trees hash
// identically regardless of original key insertion order. Use the digest
// for tamper detection across a serialize→store→deserialize round trip.
func Hash(v Value) string {
	sum := sha256.Sum256(canonicalJSON(v))
	return hex.EncodeToString(sum[:])
}
