package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/authz"
	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
)

const (
	userKey  = "user"
	tokenKey = "sessionToken"
)

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Session reads the session cookie, or a bearer token, and stores the user in
// the context when it is valid. It never aborts; Require decides.
func Session(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}
		if user, err := auth.Authenticate(c.Request.Context(), token); err == nil {
			c.Set(userKey, user)
			c.Set(tokenKey, token)
		}
		c.Next()
	}
}

// SessionToken returns the raw token from the cookie or the Authorization header.
func SessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// CurrentUser is the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// Require gates a route on the authorization policy. Missing, invalid and
// expired sessions all receive the same 401 body.
func Require(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch authz.Policy(CurrentUser(c), action) {
		case authz.Allow:
			c.Next()
		case authz.Unauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": garden.ErrAuthRequired.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": garden.ErrForbidden.Error()})
		}
	}
}
