package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mixhub/apiserver/internal/services"
)

const (
	maxImageBytes      = 5 << 20
	formFieldImage     = "drinkImage"
	maxMultipartMemory = 8 << 20
)

// ImageHandler provides drink-image upload and deletion.
type ImageHandler struct {
	images *services.ImageService
	dev    bool
}

func NewImageHandler(images *services.ImageService, dev bool) *ImageHandler {
	return &ImageHandler{images: images, dev: dev}
}

// ImageRouter registers image routes; both require a session.
func ImageRouter(r chi.Router, images *services.ImageService, authMiddleware *AuthMiddleware, dev bool) {
	handler := NewImageHandler(images, dev)

	r.With(authMiddleware.Protect).Post("/", handler.UploadImage)
	r.With(authMiddleware.Protect).Delete("/{imageID}", handler.DeleteImage)
}

// UploadImage accepts a single png/jpeg multipart file of at most 5 MB.
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in, please log in to get access")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	if len(files) > 1 {
		writeError(w, http.StatusBadRequest, "only one image file is allowed")
		return
	}

	fileHeader := files[0]
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" {
		writeError(w, http.StatusBadRequest, "only png and jpeg images are accepted")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image file")
		return
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.images.Upload(r.Context(), fileHeader.Filename, contentType, data, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrStorageDisabled) {
			writeError(w, http.StatusServiceUnavailable, "image uploads are disabled")
			return
		}
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	if err := h.images.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrStorageDisabled) {
			writeError(w, http.StatusServiceUnavailable, "image uploads are disabled")
			return
		}
		writeServiceError(w, err, h.dev)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
