package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mixhub/apiserver/types"
)

// ImageRepository handles persistence for uploaded image records.
type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Get(ctx context.Context, id int) (types.Image, error) {
	const query = `
		SELECT id, name, storage_key, content_type, size_bytes, uploaded_by, created_at
		FROM images
		WHERE id = $1`
	var image types.Image
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ID,
		&image.Name,
		&image.StorageKey,
		&image.ContentType,
		&image.SizeBytes,
		&image.UploadedBy,
		&image.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Image{}, ErrNotFound
		}
		return types.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) Create(ctx context.Context, image types.Image) (types.Image, error) {
	image.CreatedAt = time.Now()

	const query = `
		INSERT INTO images (name, storage_key, content_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		image.Name,
		image.StorageKey,
		image.ContentType,
		image.SizeBytes,
		image.UploadedBy,
		image.CreatedAt,
	).Scan(&image.ID)
	if err != nil {
		return types.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
