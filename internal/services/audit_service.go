package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ourgarden/backend/internal/models"
	"gorm.io/gorm"
)

// AuditService records admin write actions.
type AuditService struct {
	db  *gorm.DB
	now Clock
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, now: SystemClock}
}

// AuditEntry describes one admin action.
type AuditEntry struct {
	AdminID    string
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
	IPAddress  string
	UserAgent  string
}

// LogAction logs an admin action to the audit log
func (s *AuditService) LogAction(ctx context.Context, e AuditEntry) error {
	details := ""
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			details = string(b)
		}
	}
	entry := &models.AuditLog{
		AdminID:    e.AdminID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    details,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.Error("audit log write failed", "action", e.Action, "target", e.TargetType, "error", err)
		return dbError("audit log", err)
	}
	return nil
}

// GetRecentActions retrieves recent admin actions with pagination
func (s *AuditService) GetRecentActions(ctx context.Context, page, limit int, adminID, action string) ([]models.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if adminID != "" {
		query = query.Where("admin_id = ?", adminID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, dbError("audit log", err)
	}
	var logs []models.AuditLog
	if err := query.Preload("Admin").Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, dbError("audit log", err)
	}
	return logs, total, nil
}

// GetActionCount returns the count of actions in a time window
func (s *AuditService) GetActionCount(ctx context.Context, adminID, action string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("admin_id = ? AND action = ? AND created_at > ?", adminID, action, since).
		Count(&count).Error
	return count, dbError("audit log", err)
}
