package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

const (
	// ResetTokenBytes is the entropy of a raw reset token (64 hex chars).
	ResetTokenBytes = 32

	// ResetTokenTTL bounds how long an issued reset token stays usable.
	ResetTokenTTL = 10 * time.Minute
)

// GenerateResetToken creates a random reset token and its SHA-256 hash. The
// raw token goes to the user out of band; only the hash is ever stored. A
// fast hash is sufficient here: the token is high-entropy and short-lived.
func GenerateResetToken() (token, hash string, err error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

// HashResetToken computes the SHA-256 hash of a raw reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyResetToken checks a raw token against a stored hash in constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
