// Package router composes the HTTP route table.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/authz"
	"github.com/ourgarden/backend/internal/config"
	"github.com/ourgarden/backend/internal/handlers"
	"github.com/ourgarden/backend/internal/middleware"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is everything the routes need.
type Deps struct {
	Config *config.Config
	Redis  *redis.Client // optional
	Limits services.UploadLimits
	// UploadDir is served under Config.UploadURLPrefix when set.
	UploadDir string

	Auth     *services.AuthService
	Audit    *services.AuditService
	Memories *services.MemoryService
	News     *services.NewsService
	Journey  *services.JourneyService
	Profiles *services.ProfileService
	Gallery  *services.GalleryService
	Travel   *services.TravelService
	Contact  *services.ContactService
}

// NewServices builds every service over one database and file store.
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config, files storage.FileStore, limits services.UploadLimits) Deps {
	return Deps{
		Config:   cfg,
		Redis:    rdb,
		Limits:   limits,
		Auth:     services.NewAuthService(db, rdb, cfg),
		Audit:    services.NewAuditService(db),
		Memories: services.NewMemoryService(db, files, limits),
		News:     services.NewNewsService(db),
		Journey:  services.NewJourneyService(db),
		Profiles: services.NewProfileService(db),
		Gallery:  services.NewGalleryService(db, files, limits),
		Travel:   services.NewTravelService(db),
		Contact:  services.NewContactService(db),
	}
}

func New(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.RateLimiter(d.Redis, "global", cfg.RateLimitRequests, cfg.RateLimitDuration))
	r.Use(middleware.Session(d.Auth, cfg.CookieName))

	health := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) }
	r.GET("/health", health)
	if d.UploadDir != "" {
		r.Static(cfg.UploadURLPrefix, d.UploadDir)
	}

	read := middleware.Require(authz.ReadPublic)
	write := middleware.Require(authz.Write)
	private := middleware.Require(authz.ReadPrivate)
	uploads := middleware.UploadRateLimit(d.Redis, cfg.UploadDailyLimit)
	deletes := middleware.AdminActionRateLimit(d.Audit, d.Redis, "delete", 50, 200, 10*time.Minute)

	api := r.Group("/api")
	api.GET("/health", health)

	authHandler := handlers.NewAuthHandler(d.Auth, cfg)
	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimiter(d.Redis, "login", 10, 15*time.Minute), authHandler.Login)
		auth.POST("/logout", middleware.Require(authz.ReadSelf), authHandler.Logout)
		auth.GET("/me", middleware.Require(authz.ReadSelf), authHandler.Me)
	}

	mh := handlers.NewMemoryHandler(d.Memories, d.Limits, d.Audit)
	memories := api.Group("/memories")
	{
		memories.GET("", read, mh.List)
		memories.GET("/:id", read, mh.Get)
		memories.POST("", write, mh.Create)
		memories.PATCH("/:id", write, mh.Update)
		memories.DELETE("/:id", write, deletes, mh.Delete)
		memories.POST("/:id/images", write, uploads, mh.UploadImages)
		memories.DELETE("/:id/images/:imageId", write, mh.DeleteImage)
	}

	mountContent(api.Group("/news"), read, write, deletes,
		handlers.NewContentHandler(d.News, "news", func(n *garden.News) string { return n.ID }, d.Audit))
	mountContent(api.Group("/journey"), read, write, deletes,
		handlers.NewContentHandler(d.Journey, "milestone", func(j *garden.JourneyMilestone) string { return j.ID }, d.Audit))
	mountContent(api.Group("/profiles"), read, write, deletes,
		handlers.NewContentHandler(d.Profiles, "profile", func(p *garden.Profile) string { return p.ID }, d.Audit))
	mountContent(api.Group("/travel"), read, write, deletes,
		handlers.NewContentHandler(d.Travel, "travel", func(t *garden.TravelLog) string { return t.ID }, d.Audit))

	gh := handlers.NewGalleryHandler(d.Gallery, d.Limits, d.Audit)
	gallery := api.Group("/gallery")
	{
		gallery.GET("", read, gh.List)
		gallery.GET("/:id", read, gh.Get)
		gallery.POST("", write, uploads, gh.Upload)
		gallery.PATCH("/:id", write, gh.Update)
		gallery.DELETE("/:id", write, deletes, gh.Delete)
	}

	ch := handlers.NewContactHandler(d.Contact, d.Audit)
	contact := api.Group("/contact")
	{
		contact.POST("", middleware.Require(authz.SubmitContact), middleware.RateLimiter(d.Redis, "contact", 5, time.Hour), ch.Submit)
		contact.GET("", private, ch.List)
		contact.GET("/:id", private, ch.Get)
		contact.PATCH("/:id", write, ch.Update)
		contact.PATCH("/:id/read", write, ch.MarkRead)
		contact.DELETE("/:id", write, ch.Delete)
	}

	api.GET("/admin/audit", private, handlers.NewAuditHandler(d.Audit).List)

	return r
}

type crud interface {
	List(*gin.Context)
	Get(*gin.Context)
	Create(*gin.Context)
	Update(*gin.Context)
	Delete(*gin.Context)
}

func mountContent(g *gin.RouterGroup, read, write, deletes gin.HandlerFunc, h crud) {
	g.GET("", read, h.List)
	g.GET("/:id", read, h.Get)
	g.POST("", write, h.Create)
	g.PATCH("/:id", write, h.Update)
	g.DELETE("/:id", write, deletes, h.Delete)
}
