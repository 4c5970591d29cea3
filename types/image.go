package types

import "time"

// Image records an uploaded drink image stored in object storage.
type Image struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	StorageKey  string    `json:"storage_key" db:"storage_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	UploadedBy  int       `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
