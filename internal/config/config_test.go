package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 168*time.Hour, cfg.JWTSessionDuration)
	assert.Equal(t, "/uploads", cfg.UploadURLPrefix)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxImageSize)
	assert.Equal(t, 10, cfg.UploadMaxFiles)
	assert.Equal(t, 30, cfg.MaxImagesPerMemory)
	assert.False(t, cfg.IsProduction())
	assert.Len(t, cfg.AllowedOrigins, 2)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("UPLOAD_URL_PREFIX", "files/")
	t.Setenv("JWT_SESSION_DURATION", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "/files", cfg.UploadURLPrefix)
	assert.Equal(t, 2*time.Hour, cfg.JWTSessionDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garden.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nMAX_IMAGES_PER_MEMORY: 5\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 5, cfg.MaxImagesPerMemory)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "8080", cfg.Port)
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("STORAGE_BACKEND", "ftp")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestValidateProductionSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-long-random-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
