package services

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode"
	"unicode/utf8"
)

// HashEmail returns the hex SHA-256 digest of the email exactly as given.
// The hash is case-sensitive; case handling is the caller's concern.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// ToggleFirstCase flips the case of only the first rune of the email.
// Spreadsheet sources were observed to capitalize the first letter of
// addresses entered in lowercase, so matching considers both variants.
// Full case folding is deliberately not performed.
func ToggleFirstCase(email string) string {
	if email == "" {
		return email
	}
	r, size := utf8.DecodeRuneInString(email)
	switch {
	case unicode.IsUpper(r):
		r = unicode.ToLower(r)
	case unicode.IsLower(r):
		r = unicode.ToUpper(r)
	default:
		return email
	}
	return string(r) + email[size:]
}

// CandidateHashes returns the digests a spreadsheet email may match under:
// the direct hash and the toggled-first-rune hash.
func CandidateHashes(email string) [2]string {
	return [2]string{HashEmail(email), HashEmail(ToggleFirstCase(email))}
}
