package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-spotlight-api/models"
)

type sweeperFixture struct {
	sweeper    *SpotlightSweeper
	spotlights *fakeSpotlightStore
	listings   *fakeListingStore
	history    *fakeHistoryLedger
	notify     *recordingNotifier
}

func newSweeperFixture(now time.Time) *sweeperFixture {
	fx := &sweeperFixture{
		spotlights: newFakeSpotlightStore(),
		listings:   newFakeListingStore(),
		history:    &fakeHistoryLedger{},
		notify:     &recordingNotifier{},
	}
	fx.sweeper = &SpotlightSweeper{
		spotlights: fx.spotlights,
		history:    fx.history,
		listings:   fx.listings,
		clock:      FixedClock(now),
		cache:      NewStatusCache(nil),
		notify:     fx.notify,
		interval:   time.Minute,
	}
	return fx
}

func (fx *sweeperFixture) seedWindow(listingID int, status string, end time.Time) {
	fx.listings.seed(models.Listing{
		ListingID:  listingID,
		SellerID:   1000 + listingID,
		Title:      "Seeded listing",
		IsVerified: true,
		IsActive:   true,
	})
	fx.spotlights.seed(models.Spotlight{
		ListingID:     listingID,
		AppliedBy:     8,
		StartTime:     end.Add(-24 * time.Hour),
		EndTime:       end,
		DurationHours: 24,
		Status:        status,
	})
	if status == models.SpotlightStatusActive {
		fx.listings.SetSpotlightFlags(context.Background(), listingID, true, &end)
	}
}

func TestSweepExpiresLapsedWindows(t *testing.T) {
	end := testStart.Add(24 * time.Hour)

	for name, sweepAt := range map[string]time.Time{
		"at the exact end": end,
		"an hour late":     end.Add(time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			fx := newSweeperFixture(sweepAt)
			fx.seedWindow(7, models.SpotlightStatusActive, end)

			count, err := fx.sweeper.SweepExpired(context.Background())
			if err != nil {
				t.Fatalf("sweep failed: %v", err)
			}
			if count != 1 {
				t.Fatalf("expired count = %d, want 1", count)
			}

			if row := fx.spotlights.get(7); row.Status != models.SpotlightStatusExpired {
				t.Errorf("status = %q, want expired", row.Status)
			}
			if listing := fx.listings.get(7); listing.IsSpotlighted || listing.SpotlightEndTime != nil {
				t.Errorf("listing flags not cleared: %+v", listing)
			}

			entries := fx.history.all()
			if len(entries) != 1 || entries[0].Action != models.SpotlightActionExpired {
				t.Fatalf("history = %v, want one expired entry", fx.history.actions())
			}
			if entries[0].RemovedBy != nil {
				t.Errorf("removed_by = %v, want null for a time-driven expiry", entries[0].RemovedBy)
			}
			if notes := fx.notify.all(); len(notes) != 1 || notes[0].Type != "info" {
				t.Errorf("owner notices = %v, want one info notice", notes)
			}
		})
	}
}

func TestSweepLeavesOtherWindowsAlone(t *testing.T) {
	now := testStart.Add(24 * time.Hour)
	fx := newSweeperFixture(now)

	fx.seedWindow(1, models.SpotlightStatusActive, now.Add(48*time.Hour)) // still running
	fx.seedWindow(2, models.SpotlightStatusPaused, now.Add(-time.Hour))   // paused rows wait for resume
	fx.seedWindow(3, models.SpotlightStatusRemoved, now.Add(-time.Hour))  // already terminal
	fx.seedWindow(4, models.SpotlightStatusActive, now.Add(-time.Hour))   // the one to expire

	count, err := fx.sweeper.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired count = %d, want 1", count)
	}

	wantStatus := map[int]string{
		1: models.SpotlightStatusActive,
		2: models.SpotlightStatusPaused,
		3: models.SpotlightStatusRemoved,
		4: models.SpotlightStatusExpired,
	}
	for listingID, want := range wantStatus {
		if got := fx.spotlights.get(listingID).Status; got != want {
			t.Errorf("listing %d: status = %q, want %q", listingID, got, want)
		}
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	fx := newSweeperFixture(testStart.Add(25 * time.Hour))
	fx.seedWindow(7, models.SpotlightStatusActive, testStart.Add(24*time.Hour))

	first, err := fx.sweeper.SweepExpired(context.Background())
	if err != nil || first != 1 {
		t.Fatalf("first sweep = (%d, %v), want (1, nil)", first, err)
	}

	second, err := fx.sweeper.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if second != 0 {
		t.Errorf("second sweep expired %d, want 0", second)
	}
	if got := fx.history.actions(); len(got) != 1 {
		t.Errorf("history actions = %v, want a single expired entry", got)
	}
}

func TestSweepContinuesPastRowFailures(t *testing.T) {
	now := testStart.Add(25 * time.Hour)
	fx := newSweeperFixture(now)
	fx.seedWindow(1, models.SpotlightStatusActive, testStart.Add(23*time.Hour))
	fx.seedWindow(2, models.SpotlightStatusActive, testStart.Add(24*time.Hour))
	fx.spotlights.saveErrs[1] = errors.New("deadlock detected")

	count, err := fx.sweeper.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expired count = %d, want 1 (the healthy row)", count)
	}
	if row := fx.spotlights.get(1); row.Status != models.SpotlightStatusActive {
		t.Errorf("failed row status = %q, want left active for the next sweep", row.Status)
	}
	if row := fx.spotlights.get(2); row.Status != models.SpotlightStatusExpired {
		t.Errorf("healthy row status = %q, want expired", row.Status)
	}
}

func TestSweepListingBacksOffWhenRowNoLongerLapsedActive(t *testing.T) {
	fx := newSweeperFixture(testStart.Add(25 * time.Hour))
	fx.seedWindow(7, models.SpotlightStatusPaused, testStart.Add(24*time.Hour))

	expired, err := fx.sweeper.SweepListing(context.Background(), 7)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if expired {
		t.Error("sweep expired a paused row")
	}
	if got := fx.history.actions(); len(got) != 0 {
		t.Errorf("history actions = %v, want none", got)
	}
}
