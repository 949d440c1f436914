package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores files under a base directory that is served at urlPrefix.
type Local struct {
	basePath  string
	urlPrefix string
}

func NewLocal(basePath, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{basePath: basePath, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// BasePath is the directory served as static files.
func (s *Local) BasePath() string { return s.basePath }

// Save writes to a temporary file and renames it into place, so a reader
// never sees a partial upload under the final key.
func (s *Local) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	absPath, err := s.safeJoin(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		s.discard(f, tmp)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		s.discard(f, tmp)
		return "", fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove temp file after close error", "path", tmp, "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return s.URL(key), nil
}

func (s *Local) discard(f *os.File, tmp string) {
	if cerr := f.Close(); cerr != nil {
		slog.Error("failed to close temp file", "path", tmp, "error", cerr)
	}
	if rerr := os.Remove(tmp); rerr != nil {
		slog.Error("failed to remove temp file", "path", tmp, "error", rerr)
	}
}

func (s *Local) Delete(ctx context.Context, key string) error {
	absPath, err := s.safeJoin(key)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, ErrNotExist)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *Local) KeyFromURL(url string) (string, bool) {
	prefix := s.urlPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return cleanKey(strings.TrimPrefix(url, prefix))
}

func (s *Local) URL(key string) string {
	return s.urlPrefix + "/" + strings.TrimLeft(key, "/")
}

// cleanKey normalizes a key taken from a URL. Keys that would resolve
// outside the store are not ours.
func cleanKey(key string) (string, bool) {
	if key == "" || strings.Contains(key, "\\") {
		return "", false
	}
	key = path.Clean(key)
	if key == "." || key == ".." || strings.HasPrefix(key, "../") || strings.HasPrefix(key, "/") {
		return "", false
	}
	return key, true
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *Local) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
