package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ourgarden/backend/internal/storage"
	"github.com/ourgarden/backend/pkg/garden"
)

// fileWriter runs the file half of the two-phase upload: every file is
// written before any record is committed, and removeAll undoes the writes
// when the record half fails.
type fileWriter struct {
	files storage.FileStore
}

type writtenFile struct {
	key string
	url string
}

func (w fileWriter) writeAll(ctx context.Context, kind string, uploads []Upload, types []string) ([]writtenFile, error) {
	written := make([]writtenFile, 0, len(uploads))
	for i, u := range uploads {
		key := storage.BuildObjectKey(kind, types[i])
		url, err := w.files.Save(ctx, key, types[i], bytes.NewReader(u.Data))
		if err != nil {
			w.removeAll(ctx, written)
			return nil, fmt.Errorf("%w: failed to store %s: %w", garden.ErrTransientIO, u.Filename, err)
		}
		written = append(written, writtenFile{key: key, url: url})
	}
	return written, nil
}

// removeAll is the compensating cleanup; failures are logged, not returned.
func (w fileWriter) removeAll(ctx context.Context, written []writtenFile) {
	for _, f := range written {
		if err := w.files.Delete(context.WithoutCancel(ctx), f.key); err != nil && !errors.Is(err, storage.ErrNotExist) {
			slog.Error("orphan cleanup failed", "key", f.key, "error", err)
		}
	}
}

// removeURL deletes the file behind url when it belongs to the store. A file
// that is already gone is logged and ignored.
func (w fileWriter) removeURL(ctx context.Context, url string) error {
	key, ok := w.files.KeyFromURL(url)
	if !ok {
		return nil
	}
	if err := w.files.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			slog.Warn("image file already missing", "key", key)
			return nil
		}
		return fmt.Errorf("%w: failed to delete %s: %w", garden.ErrTransientIO, key, err)
	}
	return nil
}
