package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// HistoryFilter narrows a ledger query. Zero values mean "no filter".
type HistoryFilter struct {
	ListingID int
	Action    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Offset    int
	Limit     int
}

// HistoryLedger is the append-only record of spotlight transitions.
// Append runs inside the same transaction as the transition it
// documents; rows are never updated or deleted afterwards.
type HistoryLedger interface {
	Append(ctx context.Context, entry *models.SpotlightHistory) error
	List(ctx context.Context, filter HistoryFilter) ([]models.SpotlightHistory, int64, error)
}

type gormHistoryLedger struct {
	db *gorm.DB
}

func NewHistoryLedger(db *gorm.DB) HistoryLedger {
	if db == nil {
		db = config.DB
	}
	return &gormHistoryLedger{db: db}
}

func (l *gormHistoryLedger) Append(ctx context.Context, entry *models.SpotlightHistory) error {
	if err := storeConn(ctx, l.db).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append spotlight history for listing %d: %w", entry.ListingID, err)
	}
	return nil
}

func (l *gormHistoryLedger) List(ctx context.Context, filter HistoryFilter) ([]models.SpotlightHistory, int64, error) {
	conn := storeConn(ctx, l.db)

	query := conn.Model(&models.SpotlightHistory{})
	if filter.ListingID > 0 {
		query = query.Where("listing_id = ?", filter.ListingID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count spotlight history: %w", err)
	}

	var entries []models.SpotlightHistory
	err := query.
		Preload("Listing").
		Order("created_at DESC, history_id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list spotlight history: %w", err)
	}
	return entries, total, nil
}
