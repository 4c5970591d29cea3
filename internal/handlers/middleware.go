package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/internal/store"
	"github.com/mixhub/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// userFromContext returns the identity attached by Protect or OptionalAuth.
func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// AuthMiddleware runs the per-request authentication pipeline: token
// extraction, cryptographic verification, identity reload and the freshness
// check against the last password change.
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  *services.UserService
}

func NewAuthMiddleware(tokens *auth.TokenService, users *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// authenticate runs the shared pipeline and returns the identity, or a
// status and message describing the rejection.
func (m *AuthMiddleware) authenticate(r *http.Request) (types.User, int, string) {
	tokenString, err := auth.TokenFromRequest(r)
	if err != nil {
		return types.User{}, http.StatusUnauthorized, "You are not logged in, please log in to get access"
	}

	claims, err := m.tokens.Verify(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return types.User{}, http.StatusUnauthorized, "Your token has expired, please log in again"
		}
		return types.User{}, http.StatusUnauthorized, "Invalid token, please log in again"
	}

	user, err := m.users.GetByID(r.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Valid token for a deleted account. Same generic message as
			// a stale token so callers cannot probe account existence.
			return types.User{}, http.StatusUnauthorized, "Invalid or expired session, please log in again"
		}
		return types.User{}, http.StatusInternalServerError, "Something went wrong"
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return types.User{}, http.StatusUnauthorized, "User recently changed password, please log in again"
	}

	return user, 0, ""
}

// Protect rejects any request that does not carry a valid, fresh session and
// attaches the identity to the request context otherwise.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, message := m.authenticate(r)
		if status != 0 {
			writeError(w, status, message)
			return
		}
		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attempts authentication once and continues regardless of the
// outcome. Failed attempts leave the request anonymous.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, _ := m.authenticate(r)
		if status != 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RestrictTo gates a route on the authenticated identity's role. It must run
// after Protect.
func (m *AuthMiddleware) RestrictTo(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
