package models

import (
	"time"
)

// History actions as stored in spotlight_history.action.
const (
	SpotlightActionActive  = "active"
	SpotlightActionPaused  = "paused"
	SpotlightActionResumed = "resumed"
	SpotlightActionExpired = "expired"
	SpotlightActionRemoved = "removed"
	SpotlightActionEdited  = "edited"
)

// SpotlightHistory is the append-only ledger of spotlight transitions.
// Rows are never updated or deleted. RemovedBy is set only for manual
// removals; sweeper expiries leave it null. AppliedBy always names the
// actor who started the window the row belongs to.
type SpotlightHistory struct {
	HistoryID     int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	SpotlightID   *int      `gorm:"column:spotlight_id" json:"spotlight_id,omitempty"`
	ListingID     int       `gorm:"column:listing_id;index" json:"listing_id"`
	Action        string    `gorm:"column:action;type:enum('active','paused','resumed','expired','removed','edited')" json:"action"`
	AppliedBy     int       `gorm:"column:applied_by" json:"applied_by"`
	RemovedBy     *int      `gorm:"column:removed_by" json:"removed_by,omitempty"`
	StartTime     time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime       time.Time `gorm:"column:end_time" json:"end_time"`
	DurationHours int       `gorm:"column:duration_hours" json:"duration_hours"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Listing Listing `gorm:"foreignKey:ListingID;references:ListingID" json:"listing,omitempty"`
}

func (SpotlightHistory) TableName() string {
	return "spotlight_history"
}

// SpotlightHistoryItem is the history listing payload with the joined
// listing summary.
type SpotlightHistoryItem struct {
	HistoryID     int       `json:"history_id"`
	ListingID     int       `json:"listing_id"`
	ListingTitle  string    `json:"listing_title"`
	Action        string    `json:"action"`
	AppliedBy     int       `json:"applied_by"`
	RemovedBy     *int      `json:"removed_by,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours int       `json:"duration_hours"`
	CreatedAt     time.Time `json:"created_at"`
}
