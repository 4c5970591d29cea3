package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the bearer token.
const SessionCookieName = "jwt"

// ErrNoToken is returned when neither the Authorization header nor the
// session cookie carries a token.
var ErrNoToken = errors.New("no token present")

// SessionCookieManager writes and clears the HTTP-only session cookie.
// Tokens are accepted from the Authorization header or the cookie on input;
// only the cookie is written on output.
type SessionCookieManager struct {
	ttl    time.Duration
	secure bool
}

// NewSessionCookieManager constructs a manager. The cookie is marked
// transport-secure only in production deployments.
func NewSessionCookieManager(ttlDays int, secure bool) *SessionCookieManager {
	if ttlDays < 1 {
		ttlDays = 1
	}
	return &SessionCookieManager{
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
		secure: secure,
	}
}

// Set writes the token into the session cookie.
func (m *SessionCookieManager) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on logout.
func (m *SessionCookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts a candidate token from the Authorization header
// or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token := strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value, nil
	}

	return "", ErrNoToken
}
