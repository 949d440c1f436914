package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/ourgarden/backend/internal/config"
)

// ErrNotExist is returned by Delete when the object is already gone.
var ErrNotExist = errors.New("file does not exist")

// FileStore is durable storage for uploaded images. Keys are slash-separated
// relative paths; URLs are what gets persisted on the image records.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL reports whether url points into this store and, if so, its key.
	KeyFromURL(url string) (key string, ok bool)
	URL(key string) string
}

// New returns the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (FileStore, error) {
	switch cfg.StorageBackend {
	case "local":
		return NewLocal(cfg.UploadDir, cfg.UploadURLPrefix)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// BuildObjectKey creates a namespaced storage key
func BuildObjectKey(kind, contentType string) string {
	return fmt.Sprintf("%s/%s%s", strings.Trim(kind, "/"), uuid.NewString(), ExtForType(contentType))
}

// ExtForType maps an image MIME type to a file extension.
func ExtForType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
