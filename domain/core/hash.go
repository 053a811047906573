package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines and file names
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// HashFields hashes an ordered list of fields. The separator keeps
// ("ab","c") and ("a","bc") apart.
func HashFields(fields ...string) Hash {
	var data strings.Builder
	for _, f := range fields {
		data.WriteString(f)
		data.WriteByte(0x1f)
	}
	return NewHash([]byte(data.String()))
}
