package types

import "time"

// Roles form a closed set; anything else is rejected at signup.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It contains identity, role, and credential metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, stored lowercased and unique.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level ("user" or "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// PasswordChangedAt records the most recent password change. Tokens
	// issued before it are considered stale.
	PasswordChangedAt *time.Time `json:"-" db:"password_changed_at"`

	// PasswordResetTokenHash holds the SHA-256 hash of an outstanding
	// reset token. The raw token is never persisted.
	PasswordResetTokenHash *string `json:"-" db:"password_reset_token_hash"`

	// PasswordResetExpiresAt is the absolute expiry of the outstanding
	// reset token.
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`

	// SavedDrinkIDs lists the drinks the user bookmarked.
	SavedDrinkIDs []int `json:"saved_drinks" db:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// JWT iat has second precision, so compare at second granularity.
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}
