package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/internal/store"
)

// AuthHandler provides the credential endpoints: signup, login, logout and
// the password-reset lifecycle.
type AuthHandler struct {
	users   *services.UserService
	cookies *auth.SessionCookieManager
	dev     bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, cookies *auth.SessionCookieManager, dev bool) *AuthHandler {
	return &AuthHandler{
		users:   users,
		cookies: cookies,
		dev:     dev,
	}
}

type SignupRequest struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Signup creates a new account, sets the session cookie and returns the
// identity with its first token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	h.cookies.Set(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Please provide email and password")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	h.cookies.Set(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusResetContent, map[string]string{"message": "logged out"})
}

// ForgotPassword issues a reset token and mails it to the account's address.
// The response body never includes the token.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.users.ForgotPassword(r.Context(), req.Email, resetURLBase(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "There is no user with this email address")
			return
		}
		writeServiceError(w, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Token sent to email"})
}

// ResetPassword consumes a reset token and starts a fresh session.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	h.cookies.Set(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// UpdateMyPassword changes the password of the authenticated user and
// returns a fresh token; every earlier token goes stale.
func (h *AuthHandler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	current, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	var req UpdatePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.users.UpdatePassword(r.Context(), current.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	h.cookies.Set(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// resetURLBase rebuilds the externally visible reset endpoint for the mail
// body from the incoming request.
func resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/users/resetPassword", scheme, r.Host)
}
