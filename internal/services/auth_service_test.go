package services

import (
	"context"
	"testing"
	"time"

	"github.com/ourgarden/backend/internal/config"
	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	jwtpkg "github.com/ourgarden/backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTSessionDuration: time.Hour,
		BcryptCost:         4,
		AdminEmail:         "Admin@Garden.test",
		AdminPassword:      "Sup3r$ecret",
		AdminName:          "Admin",
	}
}

func TestCreateDefaultAdminIsIdempotent(t *testing.T) {
	db := setupDB(t)
	svc := NewAuthService(db, nil, testConfig())
	ctx := context.Background()

	require.NoError(t, svc.CreateDefaultAdmin(ctx))
	require.NoError(t, svc.CreateDefaultAdmin(ctx))

	var admins []models.User
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@garden.test", admins[0].Email)
	assert.True(t, admins[0].IsAdmin())
}

func TestLoginAndAuthenticate(t *testing.T) {
	db := setupDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, nil, cfg)
	ctx := context.Background()
	require.NoError(t, svc.CreateDefaultAdmin(ctx))

	_, err := svc.Login(ctx, "admin@garden.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, garden.ErrAuthRequired)

	_, err = svc.Login(ctx, "nobody@garden.test", "Sup3r$ecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, " ADMIN@garden.test ", "Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, garden.ErrAuthRequired)
	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, garden.ErrAuthRequired)

	// logout without redis is a no-op
	require.NoError(t, svc.Logout(ctx, session.Token))
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	db := setupDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, nil, cfg)
	users := NewUserService(db, cfg.BcryptCost)
	ctx := context.Background()

	u, err := users.CreateUser(ctx, "sam@garden.test", "Passw0rd!", "Sam", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	token, _, err := jwtpkg.GenerateToken(u.ID, u.Role, cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, false))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, garden.ErrAuthRequired)
	_, err = svc.Login(ctx, "sam@garden.test", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	users := NewUserService(setupDB(t), 4)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, "bad", "Passw0rd!", "Sam", "")
	assert.ErrorIs(t, err, garden.ErrValidation)
	_, err = users.CreateUser(ctx, "sam@garden.test", "short", "Sam", "")
	assert.ErrorIs(t, err, garden.ErrValidation)
	_, err = users.CreateUser(ctx, "sam@garden.test", "Passw0rd!", "Sam", "owner")
	assert.ErrorIs(t, err, garden.ErrValidation)

	_, err = users.CreateUser(ctx, "sam@garden.test", "Passw0rd!", "Sam", "")
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, "SAM@garden.test", "Passw0rd!", "Sam", "")
	assert.ErrorIs(t, err, garden.ErrValidation)

	assert.ErrorIs(t, users.SetActive(ctx, "missing", false), garden.ErrNotFound)
}

func TestAuditLog(t *testing.T) {
	db := setupDB(t)
	users := NewUserService(db, 4)
	audit := NewAuditService(db)
	ctx := context.Background()

	admin, err := users.CreateUser(ctx, "admin@garden.test", "Passw0rd!", "Admin", models.RoleAdmin)
	require.NoError(t, err)

	for _, action := range []string{"create", "update", "create"} {
		require.NoError(t, audit.LogAction(ctx, AuditEntry{
			AdminID:    admin.ID,
			Action:     action,
			TargetType: "memory",
			TargetID:   "m1",
			Details:    map[string]any{"title": "Beach"},
		}))
	}

	logs, total, err := audit.GetRecentActions(ctx, 1, 10, "", "create")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[0].Admin)
	assert.Equal(t, admin.Email, logs[0].Admin.Email)
	assert.JSONEq(t, `{"title":"Beach"}`, logs[0].Details)

	n, err := audit.GetActionCount(ctx, admin.ID, "update", time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
