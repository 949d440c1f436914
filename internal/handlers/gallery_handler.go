package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

type GalleryHandler struct {
	svc    *services.GalleryService
	limits services.UploadLimits
	audit  auditor
}

func NewGalleryHandler(svc *services.GalleryService, limits services.UploadLimits, audit *services.AuditService) *GalleryHandler {
	return &GalleryHandler{svc: svc, limits: limits, audit: auditor{svc: audit}}
}

func (h *GalleryHandler) List(c *gin.Context) {
	images, err := h.svc.List(c.Request.Context(), garden.ParseContentFilter(c.Request.URL.Query()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (h *GalleryHandler) Get(c *gin.Context) {
	img, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// Upload handles POST /api/gallery: multipart field "files" plus an optional
// "category" applied to every file.
func (h *GalleryHandler) Upload(c *gin.Context) {
	uploads, err := readUploads(c, "files", h.limits)
	if err != nil {
		respondError(c, err)
		return
	}
	images, err := h.svc.Upload(c.Request.Context(), uploads, c.PostForm("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "upload", "gallery", "", map[string]any{"count": len(images)})
	c.JSON(http.StatusCreated, images)
}

func (h *GalleryHandler) Update(c *gin.Context) {
	var patch garden.GalleryPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}
	img, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "update", "gallery", img.ID, nil)
	c.JSON(http.StatusOK, img)
}

func (h *GalleryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "delete", "gallery", id, nil)
	message(c, http.StatusOK, "image deleted")
}
