package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis (optional; empty address disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret          string
	JWTSessionDuration time.Duration
	CookieName         string

	// Admin
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Storage
	StorageBackend     string
	UploadDir          string
	UploadURLPrefix    string
	UploadMaxImageSize int64
	UploadMaxFiles     int
	MaxImagesPerMemory int

	// S3
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3PublicURL       string
	S3UsePathStyle    bool

	// Security
	BcryptCost        int
	RateLimitRequests int
	RateLimitDuration time.Duration
	UploadDailyLimit  int

	// CORS
	AllowedOrigins []string

	// Logging
	LogLevel string
	LogFile  string
}

// IsProduction reports whether cookies and CORS should run in strict mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// New builds the configuration from the environment and defaults.
func New() *Config {
	cfg, _ := Load("")
	return cfg
}

// Load reads configuration from the environment, overlaid on an optional
// config file. The returned config is always populated; the error reports a
// failed file read or validation.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var readErr error
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			readErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if readErr != nil {
		return cfg, readErr
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")

	// Database
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "garden")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "garden_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "data/garden.db")

	// Redis
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// JWT
	v.SetDefault("JWT_SECRET", "your-secret-key")
	v.SetDefault("JWT_SESSION_DURATION", "168h")
	v.SetDefault("COOKIE_NAME", "token")

	// Admin
	v.SetDefault("ADMIN_EMAIL", "admin@ourgarden.local")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("ADMIN_NAME", "Admin")

	// Storage
	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("UPLOAD_MAX_IMAGE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_MAX_FILES", 10)
	v.SetDefault("MAX_IMAGES_PER_MEMORY", 30)

	// S3
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "garden-uploads")
	v.SetDefault("S3_PUBLIC_URL", "")
	v.SetDefault("S3_USE_PATH_STYLE", true)

	// Security
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", "1m")
	v.SetDefault("UPLOAD_DAILY_LIMIT", 100)

	// CORS
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	// Logging
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port: v.GetString("PORT"),
		Env:  v.GetString("ENV"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSL_MODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTSessionDuration: getDuration(v, "JWT_SESSION_DURATION", 168*time.Hour),
		CookieName:         v.GetString("COOKIE_NAME"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		AdminName:     v.GetString("ADMIN_NAME"),

		StorageBackend:     strings.ToLower(v.GetString("STORAGE_BACKEND")),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		UploadURLPrefix:    "/" + strings.Trim(v.GetString("UPLOAD_URL_PREFIX"), "/"),
		UploadMaxImageSize: v.GetInt64("UPLOAD_MAX_IMAGE_SIZE"),
		UploadMaxFiles:     v.GetInt("UPLOAD_MAX_FILES"),
		MaxImagesPerMemory: v.GetInt("MAX_IMAGES_PER_MEMORY"),

		S3Endpoint:        v.GetString("S3_ENDPOINT"),
		S3Region:          v.GetString("S3_REGION"),
		S3AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3PublicURL:       strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
		S3UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),

		BcryptCost:        v.GetInt("BCRYPT_COST"),
		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitDuration: getDuration(v, "RATE_LIMIT_DURATION", time.Minute),
		UploadDailyLimit:  v.GetInt("UPLOAD_DAILY_LIMIT"),

		AllowedOrigins: getSlice(v, "ALLOWED_ORIGINS"),

		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:  v.GetString("LOG_FILE"),
	}
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres":
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when DB_DRIVER is 'sqlite'"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got '%s'", c.DBDriver))
	}

	switch c.StorageBackend {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required when STORAGE_BACKEND is 'local'"))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND is 's3'"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be 'local' or 's3', got '%s'", c.StorageBackend))
	}

	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "your-secret-key") {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.UploadMaxImageSize <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_IMAGE_SIZE must be positive, got %d", c.UploadMaxImageSize))
	}
	if c.UploadMaxFiles < 1 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_FILES must be at least 1, got %d", c.UploadMaxFiles))
	}
	if c.MaxImagesPerMemory < 1 {
		errs = append(errs, fmt.Errorf("MAX_IMAGES_PER_MEMORY must be at least 1, got %d", c.MaxImagesPerMemory))
	}
	return errors.Join(errs...)
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil {
		return d
	}
	return def
}

func getSlice(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range strings.Split(v.GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
