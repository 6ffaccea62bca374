package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost keeps verification in the tens-of-milliseconds range on
// commodity hardware.
const bcryptCost = 12

// HashPassword produces a salted adaptive hash. Each call salts freshly, so
// the same plaintext never hashes to the same value twice.
func HashPassword(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. A
// mismatch is false, never an error.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// GenerateSessionToken returns 256 bits of cryptographically secure
// randomness as 64 hex characters. Uniqueness is not checked; the entropy
// makes collisions a non-event.
func GenerateSessionToken() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("auth: read random: %v", err))
	}
	return hex.EncodeToString(b[:])
}
