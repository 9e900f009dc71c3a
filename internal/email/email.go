// Package email canonicalizes raw email input and derives the hashed
// identity used to query the leaked-address corpus.
package email

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Permissive on the local part because leaked datasets contain addresses
// with characters stricter validators reject (!, %, +, etc.).
var emailPattern = regexp.MustCompile(`^[^\s@]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Normalize canonicalizes a raw line into a comparable address:
// surrounding whitespace trimmed, everything lowercased.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValid reports whether a normalized address is well-formed enough to
// classify. Blank lines and entries without a usable local part or domain
// fail here and are counted as invalid by the classifier.
func IsValid(normalized string) bool {
	return emailPattern.MatchString(normalized)
}

// Hash derives the corpus identity of a normalized address: lowercase hex
// SHA-256. The corpus was indexed with exactly this encoding, so the two
// code paths must agree byte for byte.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// SplitAddress returns the local part and domain of a normalized address.
// The second return is false when the address has no usable split.
func SplitAddress(normalized string) (local, domain string, ok bool) {
	at := strings.LastIndex(normalized, "@")
	if at <= 0 || at == len(normalized)-1 {
		return "", "", false
	}
	return normalized[:at], normalized[at+1:], true
}
