package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.SubjectID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
}

func TestTokenServiceVerifyBeforeAndAfterExpiry(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.Issue(7)
	require.NoError(t, err)

	// Just inside the window.
	svc.now = func() time.Time { return issuedAt.Add(time.Hour - time.Minute) }
	_, err = svc.Verify(token)
	require.NoError(t, err)

	// Past the window.
	svc.now = func() time.Time { return issuedAt.Add(time.Hour + time.Minute) }
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	other := NewTokenService("other-secret", time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", raw)
	}
}

func TestTokenServiceRejectsTamperedSubject(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)

	// Flip a byte in the payload; the signature check must fail.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}
	_, err = svc.Verify(string(tampered))
	require.Error(t, err)
}
