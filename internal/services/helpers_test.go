package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func pngUpload(name string) Upload {
	return Upload{Filename: name, Data: append([]byte(nil), pngHeader...)}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.OpenSQLite(filepath.Join(t.TempDir(), "garden.db"), nil)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func setupStore(t *testing.T) (*storage.Local, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := storage.NewLocal(dir, "/uploads")
	require.NoError(t, err)
	return store, dir
}

// fixedClock always reports the same instant; Clock.next keeps updates
// monotonic on top of it.
func fixedClock() Clock {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

// countFiles returns the number of regular files below dir.
func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasSuffix(path, ".part") {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func fileForURL(dir, url string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
}
