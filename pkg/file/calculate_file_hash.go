package file

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// CalculateHash returns the hex SHA-256 of data.
func CalculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateHash checks data against an optional hex SHA-256. An empty
// expected hash skips the check.
func ValidateHash(data []byte, expected string) error {
	if expected == "" {
		return nil
	}
	if got := CalculateHash(data); !strings.EqualFold(got, expected) {
		return fmt.Errorf("hash mismatch: got %s, want %s", got, expected)
	}
	return nil
}
