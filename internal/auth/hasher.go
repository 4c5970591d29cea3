// Package auth provides the credential primitives of the identity
// subsystem: password hashing, bearer token issuance/verification,
// reset token generation and session cookie carriage.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost keeps a single hash in the 100ms range on current hardware,
// deliberately expensive to resist offline brute force.
const BcryptCost = 12

// ErrMalformedHash is returned when a stored hash cannot be parsed. This is
// an integrity failure, not an authentication failure.
var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: BcryptCost}
}

// Hash produces a salted bcrypt hash of the plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify checks the plaintext password against the stored hash. It returns
// (false, nil) on a mismatch and a non-nil error only when the stored hash
// itself is unusable.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrMalformedHash
}
