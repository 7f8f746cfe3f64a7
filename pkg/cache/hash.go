package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	return fmt.Sprintf("%s:%s", prefix, HashValues(parts...))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashValues hashes the JSON encoding of values. Values that cannot be
// encoded contribute their fmt representation instead.
func HashValues(values ...any) string {
	data, err := json.Marshal(values)
	if err != nil {
		data = []byte(fmt.Sprint(values...))
	}
	return Hash(data)
}
