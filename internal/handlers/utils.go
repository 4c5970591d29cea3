package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/internal/store"
	"github.com/mixhub/apiserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

var validate = validator.New()

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthResponse carries a bearer token and the authenticated identity.
type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError is the single boundary translating service error kinds to
// transport status codes. Operational errors surface their message; anything
// unanticipated becomes a generic 500 with the detail logged (and returned
// only in dev mode).
func writeServiceError(w http.ResponseWriter, err error, dev bool) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, services.ErrPasswordIncorrect):
		writeError(w, http.StatusBadRequest, "Password is incorrect, please enter your password")
	case errors.Is(err, services.ErrResetTokenInvalid):
		writeError(w, http.StatusBadRequest, "Token is invalid or has expired")
	case errors.Is(err, services.ErrEmailDelivery):
		writeError(w, http.StatusInternalServerError, "Error sending email, please try again later")
	case errors.Is(err, services.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "Please enter a valid role [ user ] or [ admin ]")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Duplicate field value: email")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "No document found with this ID")
	default:
		slog.Error("unhandled service error", "error", err)
		if dev {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return errors.New("invalid input data: field " + strings.ToLower(first.Field()) + " failed on " + first.Tag())
		}
		return errors.New("invalid input data")
	}
	return nil
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func parseIDParam(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
