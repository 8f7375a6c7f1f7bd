package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// RequestMeta carries request attribution into the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEntry is one recordable action.
type AuditEntry struct {
	UserID       int
	Action       string
	EntityType   string
	EntityID     *int
	EntityNumber *string
	OldValues    *string
	NewValues    *string
	Description  *string
	Meta         RequestMeta
}

// AuditSink records actions best-effort. A sink failure is logged and
// swallowed; it never fails the operation being audited.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	if db == nil {
		db = config.DB
	}
	return &AuditService{db: db}
}

func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	row := models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		EntityNumber: entry.EntityNumber,
		OldValues:    entry.OldValues,
		NewValues:    entry.NewValues,
		Description:  entry.Description,
		IPAddress:    entry.Meta.IPAddress,
	}
	if ua := strings.TrimSpace(entry.Meta.UserAgent); ua != "" {
		row.UserAgent = &ua
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("audit: failed to record %s on %s: %v", entry.Action, entry.EntityType, err)
	}
}

// auditValues serializes a snapshot for the old/new value columns.
// Returns nil when the value cannot be serialized; the audit row is
// still written without it.
func auditValues(v interface{}) *string {
	serialized, err := json.Marshal(v)
	if err != nil {
		log.Printf("audit: failed to serialize values: %v", err)
		return nil
	}
	s := string(serialized)
	return &s
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
