package fieldmap

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HashSHA256 returns the hex SHA-256 digest of s, unchanged.
func HashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashPII lowercases and trims s before hashing, the normalization ad
// platforms expect for matching.
func HashPII(s string) string {
	return HashSHA256(strings.ToLower(strings.TrimSpace(s)))
}

// FoldToken folds s to lowercase ASCII letters and digits:
// "San Donà di Piave" becomes "sandonadipiave".
func FoldToken(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
