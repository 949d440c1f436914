package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

type ContactHandler struct {
	svc   *services.ContactService
	audit auditor
}

func NewContactHandler(svc *services.ContactService, audit *services.AuditService) *ContactHandler {
	return &ContactHandler{svc: svc, audit: auditor{svc: audit}}
}

// Submit handles the public POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var dto garden.ContactDTO
	if err := bindJSON(c, &dto); err != nil {
		respondError(c, err)
		return
	}
	msg, err := h.svc.Create(c.Request.Context(), dto, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /api/contact?unread&search
func (h *ContactHandler) List(c *gin.Context) {
	msgs, err := h.svc.List(c.Request.Context(), garden.ParseContentFilter(c.Request.URL.Query()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ContactHandler) Get(c *gin.Context) {
	msg, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *ContactHandler) MarkRead(c *gin.Context) {
	msg, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "mark_read", "contact", msg.ID, nil)
	c.JSON(http.StatusOK, msg)
}

// Update handles PATCH /api/contact/:id with a ContactPatch body.
func (h *ContactHandler) Update(c *gin.Context) {
	var patch garden.ContactPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}
	msg, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "update", "contact", msg.ID, nil)
	c.JSON(http.StatusOK, msg)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.record(c, "delete", "contact", id, nil)
	message(c, http.StatusOK, "message deleted")
}
