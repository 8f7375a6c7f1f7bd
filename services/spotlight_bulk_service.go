package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// BulkAction is the closed set of operations the bulk endpoint runs.
// Parsing happens once at the envelope; nothing downstream dispatches
// on raw strings.
type BulkAction string

const (
	BulkActionAdd    BulkAction = "add"
	BulkActionEdit   BulkAction = "edit"
	BulkActionRemove BulkAction = "remove"
)

// MaxBulkListings bounds one bulk call.
const MaxBulkListings = 100

// ParseBulkAction validates the envelope action.
func ParseBulkAction(raw string) (BulkAction, error) {
	switch BulkAction(raw) {
	case BulkActionAdd, BulkActionEdit, BulkActionRemove:
		return BulkAction(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidBatch, raw)
	}
}

// MissingListingsError aborts a bulk call whose ID list references
// listings that do not exist. It unwraps to ErrListingNotFound and
// carries the missing IDs so the caller can report them.
type MissingListingsError struct {
	ListingIDs []int
}

func (e *MissingListingsError) Error() string {
	return fmt.Sprintf("listings not found: %v", e.ListingIDs)
}

func (e *MissingListingsError) Unwrap() error {
	return ErrListingNotFound
}

// SpotlightBulkService fans a bulk request out over the lifecycle
// engine, one transaction per listing. Batches are not atomic as a
// whole: per-listing failures are collected, the rest proceed.
type SpotlightBulkService struct {
	engine   *SpotlightService
	listings ListingStore
	gate     PermissionGate
	audit    AuditSink
}

func NewSpotlightBulkService(db *gorm.DB, clk Clock) *SpotlightBulkService {
	if db == nil {
		db = config.DB
	}
	return &SpotlightBulkService{
		engine:   NewSpotlightService(db, clk),
		listings: NewListingStore(db),
		gate:     NewPermissionService(db),
		audit:    NewAuditService(db),
	}
}

// Execute validates the envelope, pre-checks listing existence and then
// processes each listing independently. The returned result always
// carries succeeded/failed counts and a batch ID; the caller decides
// how to surface a batch where nothing succeeded.
func (s *SpotlightBulkService) Execute(ctx context.Context, req models.BulkSpotlightRequest, actorID int, meta RequestMeta) (*models.BulkSpotlightResult, error) {
	action, err := ParseBulkAction(req.Action)
	if err != nil {
		return nil, err
	}

	if len(req.ListingIDs) == 0 {
		return nil, fmt.Errorf("%w: listing_ids must not be empty", ErrInvalidBatch)
	}
	if len(req.ListingIDs) > MaxBulkListings {
		return nil, fmt.Errorf("%w: at most %d listings per call, got %d", ErrInvalidBatch, MaxBulkListings, len(req.ListingIDs))
	}

	windowReq := models.SpotlightRequest{
		DurationHours: req.DurationHours,
		CustomEndTime: req.CustomEndTime,
	}
	if action == BulkActionAdd || action == BulkActionEdit {
		if _, err := ParseSpotlightWindow(windowReq); err != nil {
			return nil, err
		}
	}

	switch action {
	case BulkActionAdd, BulkActionEdit:
		if err := s.gate.CanApplySpotlight(ctx, actorID); err != nil {
			return nil, err
		}
	case BulkActionRemove:
		if err := s.gate.CanRemoveSpotlight(ctx, actorID); err != nil {
			return nil, err
		}
	}

	// Existence pre-check: missing listings abort the whole batch
	// before any row is touched.
	listings, err := s.listings.GetByIDs(ctx, req.ListingIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[int]bool, len(listings))
	for _, listing := range listings {
		found[listing.ListingID] = true
	}
	var missing []int
	for _, listingID := range req.ListingIDs {
		if !found[listingID] {
			missing = append(missing, listingID)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingListingsError{ListingIDs: missing}
	}

	result := &models.BulkSpotlightResult{
		BatchID:   uuid.New().String(),
		Action:    string(action),
		Succeeded: []int{},
		Failed:    []models.BulkSpotlightFailure{},
	}

	for _, listingID := range req.ListingIDs {
		var itemErr error
		switch action {
		case BulkActionAdd:
			_, itemErr = s.engine.Apply(ctx, listingID, actorID, windowReq, meta)
		case BulkActionEdit:
			_, itemErr = s.engine.Edit(ctx, listingID, actorID, windowReq, meta)
		case BulkActionRemove:
			_, itemErr = s.engine.Remove(ctx, listingID, actorID, "", meta)
		}

		if itemErr != nil {
			result.Failed = append(result.Failed, models.BulkSpotlightFailure{
				ListingID: listingID,
				Error:     itemErr.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, listingID)
	}

	result.SucceededCount = len(result.Succeeded)
	result.FailedCount = len(result.Failed)

	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:       actorID,
			Action:       "bulk_spotlight_" + string(action),
			EntityType:   "spotlight_batch",
			EntityNumber: &result.BatchID,
			NewValues:    auditValues(result),
			Description:  stringPtr(fmt.Sprintf("Bulk %s: %d succeeded, %d failed", action, result.SucceededCount, result.FailedCount)),
			Meta:         meta,
		})
	}

	return result, nil
}
