package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

type MemoryHandler struct {
	svc    *services.MemoryService
	limits services.UploadLimits
	audit  auditor
}

func NewMemoryHandler(svc *services.MemoryService, limits services.UploadLimits, audit *services.AuditService) *MemoryHandler {
	return &MemoryHandler{svc: svc, limits: limits, audit: auditor{svc: audit}}
}

// List handles GET /api/memories?category&mood&search&startDate&endDate
func (h *MemoryHandler) List(c *gin.Context) {
	filter, err := garden.ParseMemoryFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	memories, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memories)
}

// Get handles GET /api/memories/:id, where id may also be a slug
func (h *MemoryHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MemoryHandler) Create(c *gin.Context) {
	var dto garden.MemoryDTO
	if err := bindJSON(c, &dto); err != nil {
		respondError(c, err)
		return
	}
	m, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "create", "memory", m.ID, map[string]any{"title": m.Title})
	c.JSON(http.StatusCreated, m)
}

func (h *MemoryHandler) Update(c *gin.Context) {
	var patch garden.MemoryPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}
	m, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "update", "memory", m.ID, nil)
	c.JSON(http.StatusOK, m)
}

func (h *MemoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "delete", "memory", id, nil)
	message(c, http.StatusOK, "memory deleted")
}

// UploadImages handles POST /api/memories/:id/images with multipart field "images"
func (h *MemoryHandler) UploadImages(c *gin.Context) {
	uploads, err := readUploads(c, "images", h.limits)
	if err != nil {
		respondError(c, err)
		return
	}
	id := c.Param("id")
	images, err := h.svc.AttachImages(c.Request.Context(), id, uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "attach_images", "memory", id, map[string]any{"count": len(images)})
	c.JSON(http.StatusCreated, images)
}

func (h *MemoryHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	imageID := c.Param("imageId")
	if err := h.svc.DetachImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "detach_image", "memory", id, map[string]any{"imageId": imageID})
	message(c, http.StatusOK, "image deleted")
}
