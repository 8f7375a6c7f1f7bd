package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// ListingStore is the engine's view of the listings table. The engine
// owns only the two spotlight flags; everything else on the listing
// belongs to the marketplace proper.
type ListingStore interface {
	GetByID(ctx context.Context, listingID int) (*models.Listing, error)
	GetByIDs(ctx context.Context, listingIDs []int) ([]models.Listing, error)
	SetSpotlightFlags(ctx context.Context, listingID int, spotlighted bool, endTime *time.Time) error
}

type gormListingStore struct {
	db *gorm.DB
}

func NewListingStore(db *gorm.DB) ListingStore {
	if db == nil {
		db = config.DB
	}
	return &gormListingStore{db: db}
}

func (s *gormListingStore) GetByID(ctx context.Context, listingID int) (*models.Listing, error) {
	var listing models.Listing
	err := storeConn(ctx, s.db).
		Where("listing_id = ? AND delete_at IS NULL", listingID).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", listingID, err)
	}
	return &listing, nil
}

func (s *gormListingStore) GetByIDs(ctx context.Context, listingIDs []int) ([]models.Listing, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	var listings []models.Listing
	err := storeConn(ctx, s.db).
		Where("listing_id IN ? AND delete_at IS NULL", listingIDs).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	return listings, nil
}

func (s *gormListingStore) SetSpotlightFlags(ctx context.Context, listingID int, spotlighted bool, endTime *time.Time) error {
	err := storeConn(ctx, s.db).
		Model(&models.Listing{}).
		Where("listing_id = ?", listingID).
		Updates(map[string]interface{}{
			"is_spotlighted":     spotlighted,
			"spotlight_end_time": endTime,
			"update_at":          time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update spotlight flags on listing %d: %w", listingID, err)
	}
	return nil
}
