package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/types"
)

// UserHandler provides profile and admin user-management endpoints.
type UserHandler struct {
	users *services.UserService
	dev   bool
}

func NewUserHandler(users *services.UserService, dev bool) *UserHandler {
	return &UserHandler{users: users, dev: dev}
}

// UserRouter registers all /users routes: the public credential endpoints,
// the session-protected profile endpoints and the admin-only user CRUD.
func UserRouter(
	r chi.Router,
	users *services.UserService,
	authMiddleware *AuthMiddleware,
	cookies *auth.SessionCookieManager,
	dev bool,
) {
	authHandler := NewAuthHandler(users, cookies, dev)
	userHandler := NewUserHandler(users, dev)

	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Post("/forgotPassword", authHandler.ForgotPassword)
	r.Patch("/resetPassword/{token}", authHandler.ResetPassword)

	// Everything below requires a valid, fresh session.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Protect)

		r.Patch("/updateMyPassword", authHandler.UpdateMyPassword)
		r.Get("/me", userHandler.Me)
		r.Patch("/updateMe", userHandler.UpdateMe)
		r.Delete("/deleteMe", userHandler.DeleteMe)
		r.Patch("/addDrink/{drinkID}", userHandler.AddDrink)
		r.Patch("/removeDrink/{drinkID}", userHandler.RemoveDrink)

		// Admin-only user management.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RestrictTo(types.RoleAdmin))

			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.CreateUser)
			r.Get("/{userID}", userHandler.GetUser)
			r.Patch("/{userID}", userHandler.UpdateUser)
			r.Delete("/{userID}", userHandler.DeleteUser)
		})
	})
}

type UpdateMeRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type AdminUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UserListResponse is the paginated list response payload.
type UserListResponse struct {
	Items []types.User `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

// Me returns the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe changes the user-editable profile fields. Password and role are
// rejected here; they have dedicated paths.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	var req UpdateMeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Username, req.Email)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMe removes the authenticated user's account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddDrink bookmarks a drink for the authenticated user.
func (h *UserHandler) AddDrink(w http.ResponseWriter, r *http.Request) {
	h.changeSavedDrink(w, r, h.users.SaveDrink)
}

// RemoveDrink removes a bookmarked drink.
func (h *UserHandler) RemoveDrink(w http.ResponseWriter, r *http.Request) {
	h.changeSavedDrink(w, r, h.users.UnsaveDrink)
}

func (h *UserHandler) changeSavedDrink(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, userID, drinkID int) (types.User, error),
) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	drinkID, err := parseIDParam(chi.URLParam(r, "drinkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	updated, err := change(r.Context(), user.ID, drinkID)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	user, err := h.users.AdminCreate(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req AdminUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.AdminUpdate(r.Context(), id, req.Username, req.Email, req.Role)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
