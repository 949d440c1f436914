package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/crypto"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/validation"
	"gorm.io/gorm"
)

type UserService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, s.db, "user", id)
}

// GetUserByEmail retrieves a user by normalized email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, dbError("user", err)
	}
	return &user, nil
}

// CreateUser registers an account. Accounts are only created by operators;
// there is no public sign-up.
func (s *UserService) CreateUser(ctx context.Context, email, password, name, role string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if !validation.ValidateEmail(email) {
		return nil, garden.NewFieldError("email", "must be a valid email address")
	}
	if !validation.ValidatePassword(password) {
		return nil, garden.NewFieldError("password", "must be at least 8 characters with upper, lower, digit and symbol")
	}
	if name == "" {
		return nil, garden.NewFieldError("name", "is required")
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, garden.NewFieldError("role", "must be one of: %s, %s", models.RoleUser, models.RoleAdmin)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, dbError("user", err)
	}
	if count > 0 {
		return nil, garden.NewFieldError("email", "is already registered")
	}

	hashed, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:    email,
		Password: hashed,
		Name:     name,
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, dbError("create user", err)
	}
	return user, nil
}

// SetActive enables or disables login for a user.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return dbError("user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %w", garden.ErrNotFound)
	}
	return nil
}
