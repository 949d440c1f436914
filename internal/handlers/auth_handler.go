package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/config"
	"github.com/ourgarden/backend/internal/middleware"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

// Login handles user login and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if req.Email == "" {
		respondError(c, garden.NewFieldError("email", "is required"))
		return
	}
	if req.Password == "" {
		respondError(c, garden.NewFieldError("password", "is required"))
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setCookie(c, session.Token, session.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": session.User})
}

// Logout clears the cookie and revokes the token
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c, h.cfg.CookieName)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	h.setCookie(c, "", time.Unix(0, 0))
	message(c, http.StatusOK, "logged out")
}

// Me returns the session user
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, expires time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.cfg.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}
	maxAge := int(time.Until(expires).Seconds())
	if value == "" || maxAge < 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: sameSite,
	})
}
