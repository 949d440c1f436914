package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

// ContentService is the CRUD surface shared by news, journey, profiles and
// travel.
type ContentService[E, D, P any] interface {
	List(ctx context.Context, f *garden.ContentFilter) ([]E, error)
	Get(ctx context.Context, id string) (*E, error)
	Create(ctx context.Context, dto D) (*E, error)
	Update(ctx context.Context, id string, patch P) (*E, error)
	Delete(ctx context.Context, id string) error
}

// ContentHandler serves one sibling resource.
type ContentHandler[E, D, P any] struct {
	svc   ContentService[E, D, P]
	kind  string
	idOf  func(*E) string
	audit auditor
}

// NewContentHandler names the resource kind for audit entries; idOf extracts
// the id of a created or updated item.
func NewContentHandler[E, D, P any](svc ContentService[E, D, P], kind string, idOf func(*E) string, audit *services.AuditService) *ContentHandler[E, D, P] {
	return &ContentHandler[E, D, P]{svc: svc, kind: kind, idOf: idOf, audit: auditor{svc: audit}}
}

func (h *ContentHandler[E, D, P]) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), garden.ParseContentFilter(c.Request.URL.Query()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ContentHandler[E, D, P]) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler[E, D, P]) Create(c *gin.Context) {
	var dto D
	if err := bindJSON(c, &dto); err != nil {
		respondError(c, err)
		return
	}
	item, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "create", h.kind, h.idOf(item), nil)
	c.JSON(http.StatusCreated, item)
}

func (h *ContentHandler[E, D, P]) Update(c *gin.Context) {
	var patch P
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "update", h.kind, h.idOf(item), nil)
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler[E, D, P]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "delete", h.kind, id, nil)
	message(c, http.StatusOK, h.kind+" deleted")
}
