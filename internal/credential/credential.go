// Package credential owns the one-way transformation of plaintext passwords
// into storable digests and the verification of plaintexts against them.
package credential

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash derives a salted bcrypt digest from plaintext. Two calls with the same
// input produce different digests (random salt), both of which verify.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. It returns false for a
// mismatch or a malformed digest and never panics; bcrypt's comparison is
// constant-time over the derived key.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
