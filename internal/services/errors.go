package services

import (
	"errors"

	"github.com/mixhub/apiserver/internal/store"
)

// Operational errors. Their messages are safe to surface; the handler layer
// maps them to transport status codes.
var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrPasswordIncorrect is returned when the current password supplied to
	// a password change does not match.
	ErrPasswordIncorrect = errors.New("current password is incorrect")

	// ErrResetTokenInvalid covers unknown, consumed and expired reset tokens
	// alike, so callers cannot probe which tokens once existed.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")

	// ErrEmailDelivery is returned when the reset mail could not be sent.
	// The stored token is rolled back before it is returned.
	ErrEmailDelivery = errors.New("error sending email, please try again later")

	// ErrInvalidRole is returned when a role outside the closed set is supplied.
	ErrInvalidRole = errors.New("invalid role")
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
