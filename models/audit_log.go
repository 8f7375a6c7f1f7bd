package models

import (
	"time"
)

// AuditLog records who did what through the API. Spotlight transitions
// write one row each; pause/resume/remove reasons land in Description.
// Writes are best-effort and never block the operation that triggered
// them.
type AuditLog struct {
	LogID        int       `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       int       `gorm:"column:user_id;index" json:"user_id"`
	Action       string    `gorm:"column:action" json:"action"`
	EntityType   string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID     *int      `gorm:"column:entity_id" json:"entity_id,omitempty"`
	EntityNumber *string   `gorm:"column:entity_number" json:"entity_number,omitempty"`
	OldValues    *string   `gorm:"column:old_values;type:text" json:"old_values,omitempty"`
	NewValues    *string   `gorm:"column:new_values;type:text" json:"new_values,omitempty"`
	Description  *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
