package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// SpotlightStore persists the current spotlight row per listing. Writes
// that belong to one lifecycle transition run inside WithTx so the row,
// the listing flags and the history entry commit together.
type SpotlightStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetByListingID(ctx context.Context, listingID int) (*models.Spotlight, error)
	// GetByListingIDForUpdate locks the row until the surrounding
	// transaction commits. Returns (nil, nil) when no row exists.
	GetByListingIDForUpdate(ctx context.Context, listingID int) (*models.Spotlight, error)
	Create(ctx context.Context, spotlight *models.Spotlight) error
	Save(ctx context.Context, spotlight *models.Spotlight) error
	ListActive(ctx context.Context, offset, limit int) ([]models.Spotlight, int64, error)
	// ListExpiredActiveIDs returns listing IDs whose active window has
	// lapsed at the given instant.
	ListExpiredActiveIDs(ctx context.Context, now time.Time) ([]int, error)
}

type gormSpotlightStore struct {
	db *gorm.DB
}

func NewSpotlightStore(db *gorm.DB) SpotlightStore {
	if db == nil {
		db = config.DB
	}
	return &gormSpotlightStore{db: db}
}

func (s *gormSpotlightStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, s.db, fn)
}

func (s *gormSpotlightStore) GetByListingID(ctx context.Context, listingID int) (*models.Spotlight, error) {
	var spotlight models.Spotlight
	err := storeConn(ctx, s.db).
		Where("listing_id = ?", listingID).
		First(&spotlight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load spotlight for listing %d: %w", listingID, err)
	}
	return &spotlight, nil
}

func (s *gormSpotlightStore) GetByListingIDForUpdate(ctx context.Context, listingID int) (*models.Spotlight, error) {
	var spotlight models.Spotlight
	err := storeConn(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ?", listingID).
		First(&spotlight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock spotlight for listing %d: %w", listingID, err)
	}
	return &spotlight, nil
}

func (s *gormSpotlightStore) Create(ctx context.Context, spotlight *models.Spotlight) error {
	if err := storeConn(ctx, s.db).Create(spotlight).Error; err != nil {
		return fmt.Errorf("failed to create spotlight for listing %d: %w", spotlight.ListingID, err)
	}
	return nil
}

func (s *gormSpotlightStore) Save(ctx context.Context, spotlight *models.Spotlight) error {
	if err := storeConn(ctx, s.db).Save(spotlight).Error; err != nil {
		return fmt.Errorf("failed to save spotlight %d: %w", spotlight.SpotlightID, err)
	}
	return nil
}

func (s *gormSpotlightStore) ListActive(ctx context.Context, offset, limit int) ([]models.Spotlight, int64, error) {
	conn := storeConn(ctx, s.db)

	var total int64
	if err := conn.Model(&models.Spotlight{}).
		Where("status = ?", models.SpotlightStatusActive).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count active spotlights: %w", err)
	}

	var spotlights []models.Spotlight
	err := conn.
		Preload("Listing").
		Where("status = ?", models.SpotlightStatusActive).
		Order("end_time ASC").
		Offset(offset).
		Limit(limit).
		Find(&spotlights).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list active spotlights: %w", err)
	}
	return spotlights, total, nil
}

func (s *gormSpotlightStore) ListExpiredActiveIDs(ctx context.Context, now time.Time) ([]int, error) {
	var listingIDs []int
	err := storeConn(ctx, s.db).
		Model(&models.Spotlight{}).
		Where("status = ? AND end_time <= ?", models.SpotlightStatusActive, now).
		Order("end_time ASC").
		Pluck("listing_id", &listingIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired spotlights: %w", err)
	}
	return listingIDs, nil
}
