package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// RedactKey returns a short stable digest of s so identifiers such as emails
// can be correlated in logs without being written out.
func RedactKey(s string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return hex.EncodeToString(sum[:6])
}
