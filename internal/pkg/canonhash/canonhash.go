// Package canonhash produces the content hashes stored alongside
// imprinted documents (source_checksum, field_config_hash,
// source_field_def_hash). Hashing is sha-256 over a canonical JSON
// serialization, rendered as a lowercase 64-character hex string.
package canonhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Canonical serializes v as canonical JSON: object keys sorted
// lexicographically, no insignificant whitespace. encoding/json already
// guarantees sorted keys for maps, which is exactly the canonical form
// the hash columns rely on; do not swap this for a faster encoder that
// preserves insertion order.
func Canonical(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return b, nil
}

// Hash returns the 64-hex sha-256 digest of the canonical serialization
// of v.
func Hash(v any) (string, error) {
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes digests raw bytes that are already in canonical form.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s is a well-formed content hash.
func Valid(s string) bool {
	return hexPattern.MatchString(s)
}
