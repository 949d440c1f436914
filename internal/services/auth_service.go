package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ourgarden/backend/internal/config"
	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/crypto"
	"github.com/ourgarden/backend/pkg/garden"
	jwtpkg "github.com/ourgarden/backend/pkg/jwt"
	"github.com/ourgarden/backend/pkg/validation"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for an unknown email, a wrong password or
// a deactivated account alike.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", garden.ErrAuthRequired)

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
	users *UserService
}

// NewAuthService wires session handling. redis may be nil, in which case
// logged-out tokens stay valid until they expire.
func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
		users: NewUserService(db, cfg.BcryptCost),
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login checks the credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, dbError("user", err)
	}
	if !user.IsActive || !crypto.CheckPassword(password, user.Password) {
		slog.Warn("login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expires, err := jwtpkg.GenerateToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.JWTSessionDuration)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	slog.Info("login", "user_id", user.ID, "role", user.Role)
	return &Session{Token: token, ExpiresAt: expires, User: &user}, nil
}

// Logout revokes token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.redis == nil || token == "" {
		return nil
	}
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		slog.Warn("could not blacklist token", "error", err)
	}
	return nil
}

// Authenticate resolves a session token to an active user. Any failure is
// reported as ErrAuthRequired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, garden.ErrAuthRequired
	}
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", garden.ErrAuthRequired, err)
	}

	// If redis is down, we allow the request to proceed
	if s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistKey(token)).Result()
		if err != nil {
			slog.Warn("could not check token blacklist", "error", err)
		} else if n > 0 {
			return nil, fmt.Errorf("%w: session revoked", garden.ErrAuthRequired)
		}
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, garden.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", garden.ErrAuthRequired)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", garden.ErrAuthRequired)
	}
	return user, nil
}

// CreateDefaultAdmin creates the configured admin account if no user with
// that email exists yet
func (s *AuthService) CreateDefaultAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		slog.Info("no default admin configured")
		return nil
	}
	_, err := s.users.GetUserByEmail(ctx, s.cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, garden.ErrNotFound) {
		return err
	}
	admin, err := s.users.CreateUser(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	slog.Info("default admin created", "user_id", admin.ID, "email", admin.Email)
	return nil
}

func blacklistKey(token string) string {
	return "blacklist:token:" + token
}
