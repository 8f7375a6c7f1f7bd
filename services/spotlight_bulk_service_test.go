package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"marketplace-spotlight-api/models"
)

type bulkFixture struct {
	*engineFixture
	bulk *SpotlightBulkService
}

func newBulkFixture() *bulkFixture {
	fx := newEngineFixture()
	return &bulkFixture{
		engineFixture: fx,
		bulk: &SpotlightBulkService{
			engine:   fx.svc,
			listings: fx.listings,
			gate:     fx.gate,
			audit:    fx.audit,
		},
	}
}

func TestBulkAddReportsPartialFailures(t *testing.T) {
	fx := newBulkFixture()
	for _, id := range []int{1, 2, 3} {
		fx.seedListing(id, true, true)
	}
	for _, id := range []int{4, 5} {
		fx.seedListing(id, false, true)
	}

	result, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:        "add",
		ListingIDs:    []int{1, 2, 3, 4, 5},
		DurationHours: durationPtr(24),
	}, 42, testMeta)
	if err != nil {
		t.Fatalf("bulk add failed: %v", err)
	}

	if result.SucceededCount != 3 || result.FailedCount != 2 {
		t.Fatalf("counts = (%d, %d), want (3, 2)", result.SucceededCount, result.FailedCount)
	}
	for i, want := range []int{1, 2, 3} {
		if result.Succeeded[i] != want {
			t.Errorf("succeeded = %v, want [1 2 3]", result.Succeeded)
			break
		}
	}
	for _, failure := range result.Failed {
		if failure.ListingID != 4 && failure.ListingID != 5 {
			t.Errorf("unexpected failed listing %d", failure.ListingID)
		}
		if !strings.Contains(failure.Error, "not verified") {
			t.Errorf("failure %d: error = %q, want the verification message", failure.ListingID, failure.Error)
		}
	}

	for _, id := range []int{1, 2, 3} {
		if row := fx.spotlights.get(id); row == nil || row.Status != models.SpotlightStatusActive {
			t.Errorf("listing %d: spotlight row = %+v, want active", id, row)
		}
	}
	for _, id := range []int{4, 5} {
		if fx.spotlights.get(id) != nil {
			t.Errorf("listing %d: got a spotlight row despite failing", id)
		}
	}

	audit := fx.audit.last()
	if audit == nil || audit.Action != "bulk_spotlight_add" || audit.EntityType != "spotlight_batch" {
		t.Fatalf("batch audit entry = %+v, want bulk_spotlight_add on spotlight_batch", audit)
	}
	if audit.EntityNumber == nil || *audit.EntityNumber == "" || *audit.EntityNumber != result.BatchID {
		t.Errorf("audit batch id = %v, want %q", audit.EntityNumber, result.BatchID)
	}
}

func TestBulkRejectsOversizedBatch(t *testing.T) {
	fx := newBulkFixture()
	ids := make([]int, MaxBulkListings+1)
	for i := range ids {
		ids[i] = i + 1
	}

	_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:        "add",
		ListingIDs:    ids,
		DurationHours: durationPtr(24),
	}, 42, testMeta)
	if !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("err = %v, want ErrInvalidBatch", err)
	}
}

func TestBulkRejectsEmptyBatch(t *testing.T) {
	fx := newBulkFixture()

	_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:     "remove",
		ListingIDs: []int{},
	}, 42, testMeta)
	if !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("err = %v, want ErrInvalidBatch", err)
	}
}

func TestBulkRejectsUnknownAction(t *testing.T) {
	fx := newBulkFixture()
	fx.seedListing(1, true, true)

	_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:     "promote",
		ListingIDs: []int{1},
	}, 42, testMeta)
	if !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("err = %v, want ErrInvalidBatch", err)
	}
}

func TestBulkAddValidatesWindowAtEnvelope(t *testing.T) {
	fx := newBulkFixture()
	fx.seedListing(1, true, true)

	_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:     "add",
		ListingIDs: []int{1},
	}, 42, testMeta)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("err = %v, want ErrInvalidWindow for a windowless add", err)
	}
}

func TestBulkMissingListingsAbortBeforeAnyWrite(t *testing.T) {
	fx := newBulkFixture()
	fx.seedListing(1, true, true)
	fx.seedListing(2, true, true)

	_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:        "add",
		ListingIDs:    []int{1, 999, 2, 1000},
		DurationHours: durationPtr(24),
	}, 42, testMeta)

	var missing *MissingListingsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingListingsError", err)
	}
	if len(missing.ListingIDs) != 2 || missing.ListingIDs[0] != 999 || missing.ListingIDs[1] != 1000 {
		t.Errorf("missing ids = %v, want [999 1000]", missing.ListingIDs)
	}
	if !errors.Is(err, ErrListingNotFound) {
		t.Errorf("err does not unwrap to ErrListingNotFound: %v", err)
	}

	for _, id := range []int{1, 2} {
		if fx.spotlights.get(id) != nil {
			t.Errorf("listing %d was spotlighted despite the aborted batch", id)
		}
	}
	if got := fx.history.actions(); len(got) != 0 {
		t.Errorf("history actions = %v, want none", got)
	}
}

func TestBulkActionsUseMatchingGateCapability(t *testing.T) {
	t.Run("remove denied does not block add", func(t *testing.T) {
		fx := newBulkFixture()
		fx.seedListing(1, true, true)
		fx.gate.removeErr = fmt.Errorf("user 42 cannot remove spotlights: %w", ErrPermissionDenied)

		result, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
			Action:        "add",
			ListingIDs:    []int{1},
			DurationHours: durationPtr(24),
		}, 42, testMeta)
		if err != nil {
			t.Fatalf("bulk add failed: %v", err)
		}
		if result.SucceededCount != 1 {
			t.Errorf("succeeded = %d, want 1", result.SucceededCount)
		}
	})

	t.Run("apply denied does not block remove", func(t *testing.T) {
		fx := newBulkFixture()
		fx.seedListing(1, true, true)
		fx.spotlights.seed(models.Spotlight{
			ListingID:     1,
			AppliedBy:     8,
			StartTime:     testStart.Add(-time.Hour),
			EndTime:       testStart.Add(23 * time.Hour),
			DurationHours: 24,
			Status:        models.SpotlightStatusActive,
		})
		fx.gate.applyErr = fmt.Errorf("user 42 cannot apply spotlights: %w", ErrPermissionDenied)

		result, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
			Action:     "remove",
			ListingIDs: []int{1},
		}, 42, testMeta)
		if err != nil {
			t.Fatalf("bulk remove failed: %v", err)
		}
		if result.SucceededCount != 1 {
			t.Errorf("succeeded = %d, want 1", result.SucceededCount)
		}
	})

	t.Run("add denied at the envelope", func(t *testing.T) {
		fx := newBulkFixture()
		fx.seedListing(1, true, true)
		fx.gate.applyErr = fmt.Errorf("user 9 cannot apply spotlights: %w", ErrPermissionDenied)

		_, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
			Action:        "add",
			ListingIDs:    []int{1},
			DurationHours: durationPtr(24),
		}, 9, testMeta)
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("err = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestBulkAddPastCustomEndFailsPerItem(t *testing.T) {
	fx := newBulkFixture()
	fx.seedListing(1, true, true)
	fx.seedListing(2, true, true)

	// The envelope only checks the window shape; a well-formed end time
	// in the past fails each item instead.
	result, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:        "add",
		ListingIDs:    []int{1, 2},
		CustomEndTime: endTimePtr("2025-06-01T09:00:00Z"),
	}, 42, testMeta)
	if err != nil {
		t.Fatalf("bulk add failed at the envelope: %v", err)
	}

	if result.SucceededCount != 0 || result.FailedCount != 2 {
		t.Fatalf("counts = (%d, %d), want (0, 2)", result.SucceededCount, result.FailedCount)
	}
	for _, failure := range result.Failed {
		if !strings.Contains(failure.Error, "future") {
			t.Errorf("failure %d: error = %q, want the future-end message", failure.ListingID, failure.Error)
		}
	}
}

func TestBulkRemoveMixedStates(t *testing.T) {
	fx := newBulkFixture()
	for _, id := range []int{1, 2, 3} {
		fx.seedListing(id, true, true)
	}
	fx.spotlights.seed(models.Spotlight{
		ListingID: 1, AppliedBy: 8, StartTime: testStart.Add(-time.Hour),
		EndTime: testStart.Add(23 * time.Hour), DurationHours: 24,
		Status: models.SpotlightStatusActive,
	})
	fx.spotlights.seed(models.Spotlight{
		ListingID: 2, AppliedBy: 8, StartTime: testStart.Add(-time.Hour),
		EndTime: testStart.Add(23 * time.Hour), DurationHours: 24,
		Status: models.SpotlightStatusPaused,
	})
	// Listing 3 has no spotlight row at all.

	result, err := fx.bulk.Execute(context.Background(), models.BulkSpotlightRequest{
		Action:     "remove",
		ListingIDs: []int{1, 2, 3},
	}, 42, testMeta)
	if err != nil {
		t.Fatalf("bulk remove failed: %v", err)
	}

	if result.SucceededCount != 2 || result.FailedCount != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", result.SucceededCount, result.FailedCount)
	}
	if result.Failed[0].ListingID != 3 || !strings.Contains(result.Failed[0].Error, "no active spotlight") {
		t.Errorf("failure = %+v, want listing 3 with no active spotlight", result.Failed[0])
	}
}
