package models

import (
	"time"
)

// Spotlight statuses as stored in spotlights.status.
const (
	SpotlightStatusActive  = "active"
	SpotlightStatusPaused  = "paused"
	SpotlightStatusExpired = "expired"
	SpotlightStatusRemoved = "removed"
)

// SpotlightPresetHours lists the duration presets accepted by apply/edit.
var SpotlightPresetHours = []int{24, 72, 168}

// Spotlight is the current promotion window of a listing. One row per
// listing; the row is reused when a listing is spotlighted again after a
// previous window ended.
type Spotlight struct {
	SpotlightID   int       `gorm:"primaryKey;column:spotlight_id" json:"spotlight_id"`
	ListingID     int       `gorm:"column:listing_id;uniqueIndex" json:"listing_id"`
	AppliedBy     int       `gorm:"column:applied_by" json:"applied_by"`
	StartTime     time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime       time.Time `gorm:"column:end_time" json:"end_time"`
	DurationHours int       `gorm:"column:duration_hours" json:"duration_hours"`
	Status        string    `gorm:"column:status;type:enum('active','paused','expired','removed');default:'active'" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	Listing Listing `gorm:"foreignKey:ListingID;references:ListingID" json:"listing,omitempty"`
}

func (Spotlight) TableName() string {
	return "spotlights"
}

// IsActive reports whether the spotlight currently counts as running.
func (s *Spotlight) IsActive() bool {
	return s.Status == SpotlightStatusActive
}

// IsPaused reports whether the spotlight is suspended but not ended.
func (s *Spotlight) IsPaused() bool {
	return s.Status == SpotlightStatusPaused
}

// IsEnded reports whether the spotlight reached a terminal status.
func (s *Spotlight) IsEnded() bool {
	return s.Status == SpotlightStatusExpired || s.Status == SpotlightStatusRemoved
}

// LapsedAt reports whether the window end has passed at the given instant.
func (s *Spotlight) LapsedAt(now time.Time) bool {
	return !s.EndTime.After(now)
}

// DurationHoursBetween recomputes the stored duration from a window,
// rounded to the nearest hour.
func DurationHoursBetween(start, end time.Time) int {
	return int(end.Sub(start).Round(time.Hour) / time.Hour)
}

// SpotlightRequest is the apply/edit payload. Exactly one of the two
// fields must be set: a preset duration or a custom end time.
// CustomEndTime accepts RFC3339; a zone-less value is read as UTC.
type SpotlightRequest struct {
	DurationHours *int    `json:"duration_hours"`
	CustomEndTime *string `json:"custom_end_time"`
}

// SpotlightReasonRequest carries the optional operator note on
// pause/resume/remove calls. The note lands in the audit log.
type SpotlightReasonRequest struct {
	Reason string `json:"reason"`
}

// SpotlightResponse is the spotlight detail returned by write operations
// and status reads.
type SpotlightResponse struct {
	SpotlightID   int       `json:"spotlight_id"`
	ListingID     int       `json:"listing_id"`
	AppliedBy     int       `json:"applied_by"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours int       `json:"duration_hours"`
	Status        string    `json:"status"`
}

// ToResponse flattens the row for API payloads.
func (s *Spotlight) ToResponse() SpotlightResponse {
	return SpotlightResponse{
		SpotlightID:   s.SpotlightID,
		ListingID:     s.ListingID,
		AppliedBy:     s.AppliedBy,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		DurationHours: s.DurationHours,
		Status:        s.Status,
	}
}

// SpotlightStatusResponse is the public per-listing status payload.
type SpotlightStatusResponse struct {
	ListingID     int        `json:"listing_id"`
	IsSpotlighted bool       `json:"is_spotlighted"`
	Status        *string    `json:"status,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// BulkSpotlightRequest is the bulk endpoint envelope. ListingIDs is
// bounded to 100 entries per call.
type BulkSpotlightRequest struct {
	Action        string  `json:"action" binding:"required"`
	ListingIDs    []int   `json:"listing_ids" binding:"required"`
	DurationHours *int    `json:"duration_hours"`
	CustomEndTime *string `json:"custom_end_time"`
}

// BulkSpotlightFailure records one listing that could not be processed.
type BulkSpotlightFailure struct {
	ListingID int    `json:"listing_id"`
	Error     string `json:"error"`
}

// BulkSpotlightResult is the per-batch report. BatchID ties the report to
// the audit trail.
type BulkSpotlightResult struct {
	BatchID        string                 `json:"batch_id"`
	Action         string                 `json:"action"`
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
	Succeeded      []int                  `json:"succeeded"`
	Failed         []BulkSpotlightFailure `json:"failed"`
}
