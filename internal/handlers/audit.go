package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/middleware"
	"github.com/ourgarden/backend/internal/services"
)

// auditor records admin mutations. A nil service disables auditing.
type auditor struct {
	svc *services.AuditService
}

func (a auditor) record(c *gin.Context, action, targetType, targetID string, details map[string]any) {
	user := middleware.CurrentUser(c)
	if a.svc == nil || user == nil {
		return
	}
	// the response is already decided; a failed audit write is only logged
	_ = a.svc.LogAction(context.WithoutCancel(c.Request.Context()), services.AuditEntry{
		AdminID:    user.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List handles GET /api/admin/audit?page&limit&adminId&action
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, total, err := h.svc.GetRecentActions(c.Request.Context(), page, limit, c.Query("adminId"), c.Query("action"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"logs": logs, "total": total, "page": page})
}
