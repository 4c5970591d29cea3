package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/types"
)

// DrinkHandler provides HTTP handlers for drinks.
type DrinkHandler struct {
	drinks *services.DrinkService
	dev    bool
}

func NewDrinkHandler(drinks *services.DrinkService, dev bool) *DrinkHandler {
	return &DrinkHandler{drinks: drinks, dev: dev}
}

// DrinkRouter registers drink routes. Reads are public; writes require a
// session.
func DrinkRouter(r chi.Router, drinks *services.DrinkService, authMiddleware *AuthMiddleware, dev bool) {
	handler := NewDrinkHandler(drinks, dev)

	r.Get("/random-drink", handler.GetRandom)
	r.Get("/", handler.ListDrinks)
	r.With(authMiddleware.Protect).Post("/", handler.CreateDrink)
	r.Route("/{drinkID}", func(r chi.Router) {
		r.Get("/", handler.GetDrink)
		r.With(authMiddleware.Protect).Patch("/", handler.UpdateDrink)
		r.With(authMiddleware.Protect).Delete("/", handler.DeleteDrink)
	})
}

type DrinkRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=40"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1"`
	Instructions []string `json:"instructions" validate:"required,min=1"`
	Categories   []string `json:"categories" validate:"required,min=1,dive,oneof=citrus sweet bitter thick strong light sour fruity"`
	Description  string   `json:"description" validate:"omitempty,max=800"`
	CoverImage   string   `json:"cover_image"`
	ImageID      string   `json:"image_id"`
}

// DrinkListResponse is the paginated list response payload.
type DrinkListResponse struct {
	Items []types.Drink `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

func (h *DrinkHandler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.drinks.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, DrinkListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *DrinkHandler) GetDrink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "drinkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	drink, err := h.drinks.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, drink)
}

func (h *DrinkHandler) GetRandom(w http.ResponseWriter, r *http.Request) {
	drink, err := h.drinks.GetRandom(r.Context())
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, drink)
}

func (h *DrinkHandler) CreateDrink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	var req DrinkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.drinks.Create(r.Context(), types.Drink{
		Name:         req.Name,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Categories:   req.Categories,
		Description:  req.Description,
		CoverImage:   req.CoverImage,
		ImageID:      req.ImageID,
		CreatedBy:    user.ID,
	})
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *DrinkHandler) UpdateDrink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "drinkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	var req DrinkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.drinks.Update(r.Context(), types.Drink{
		ID:           id,
		Name:         req.Name,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Categories:   req.Categories,
		Description:  req.Description,
		CoverImage:   req.CoverImage,
		ImageID:      req.ImageID,
	})
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *DrinkHandler) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "drinkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	if err := h.drinks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
