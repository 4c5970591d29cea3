// Package storage stores uploaded drink images in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/mixhub/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// NewFromConfig selects and constructs the configured backend. A nil storage
// with nil error means image storage is disabled.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ImageKey builds the object key for an uploaded drink image. The timestamp
// prefix keeps keys unique across re-uploads of the same filename.
func ImageKey(filename string) string {
	base := path.Base(strings.TrimSpace(filename))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return fmt.Sprintf("drinks/%d-%s", time.Now().UnixNano(), base)
}
