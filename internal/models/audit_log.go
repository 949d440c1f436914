package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog represents an admin action log entry
type AuditLog struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AdminID    string    `gorm:"type:varchar(36);index;not null" json:"adminId"`
	Admin      *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string    `gorm:"type:varchar(100);not null" json:"action"`    // e.g. "create", "delete", "attach_images"
	TargetType string    `gorm:"type:varchar(50);not null" json:"targetType"` // e.g. "memory", "news", "gallery"
	TargetID   string    `gorm:"type:varchar(36)" json:"targetId"`
	Details    string    `gorm:"type:text" json:"details,omitempty"` // JSON string with additional info
	IPAddress  string    `gorm:"type:varchar(45)" json:"ipAddress,omitempty"`
	UserAgent  string    `gorm:"type:text" json:"userAgent,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
