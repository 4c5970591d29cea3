package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/mixhub/apiserver/internal/storage"
	"github.com/mixhub/apiserver/types"
)

// ErrStorageDisabled is returned when no object storage backend is configured.
var ErrStorageDisabled = errors.New("image storage is not configured")

// ImageRepository defines persistence operations for image records.
type ImageRepository interface {
	Get(ctx context.Context, id int) (types.Image, error)
	Create(ctx context.Context, image types.Image) (types.Image, error)
	Delete(ctx context.Context, id int) error
}

// ImageService stores drink images in object storage and records them.
type ImageService struct {
	repo    ImageRepository
	storage storage.ObjectStorage
	logger  *slog.Logger
}

func NewImageService(repo ImageRepository, objectStorage storage.ObjectStorage, logger *slog.Logger) *ImageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{repo: repo, storage: objectStorage, logger: logger}
}

// Upload writes the image bytes to object storage and records the object.
func (s *ImageService) Upload(ctx context.Context, filename, contentType string, data []byte, uploadedBy int) (types.Image, error) {
	if s.storage == nil {
		return types.Image{}, ErrStorageDisabled
	}

	key := storage.ImageKey(filename)
	size := int64(len(data))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), size, contentType); err != nil {
		return types.Image{}, err
	}

	image, err := s.repo.Create(ctx, types.Image{
		Name:        filename,
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		// The object is orphaned if this cleanup fails; log and move on.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error("orphaned image object", "key", key, "error", delErr)
		}
		return types.Image{}, err
	}
	return image, nil
}

// Delete removes the stored object and its record.
func (s *ImageService) Delete(ctx context.Context, id int) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}

	image, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, image.StorageKey); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
