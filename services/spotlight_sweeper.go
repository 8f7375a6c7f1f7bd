package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

const defaultSweepInterval = time.Minute

// SpotlightSweeper demotes spotlights whose window has lapsed. It runs
// on a timer and is also invoked lazily before status reads, so a
// reader never observes an expired window as live regardless of timer
// cadence. Sweeps are idempotent: a second run right after the first
// finds nothing to do.
type SpotlightSweeper struct {
	spotlights SpotlightStore
	history    HistoryLedger
	listings   ListingStore
	clock      Clock
	cache      *StatusCache
	notify     OwnerNotifier
	interval   time.Duration
}

func NewSpotlightSweeper(db *gorm.DB, clk Clock) *SpotlightSweeper {
	if db == nil {
		db = config.DB
	}
	if clk == nil {
		clk = SystemClock()
	}
	return &SpotlightSweeper{
		spotlights: NewSpotlightStore(db),
		history:    NewHistoryLedger(db),
		listings:   NewListingStore(db),
		clock:      clk,
		cache:      NewStatusCache(config.RedisClient),
		notify:     NewNotificationService(db),
		interval:   sweepIntervalFromEnv(),
	}
}

func sweepIntervalFromEnv() time.Duration {
	raw := os.Getenv("SPOTLIGHT_SWEEP_INTERVAL")
	if raw == "" {
		return defaultSweepInterval
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		log.Printf("sweeper: invalid SPOTLIGHT_SWEEP_INTERVAL %q, using %s", raw, defaultSweepInterval)
		return defaultSweepInterval
	}
	return parsed
}

// SweepExpired expires every active spotlight whose end time has
// passed. Each listing gets its own transaction; a failure on one row
// is logged and the sweep moves on. Returns the number of spotlights
// actually expired.
func (s *SpotlightSweeper) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	listingIDs, err := s.spotlights.ListExpiredActiveIDs(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, listingID := range listingIDs {
		expired, err := s.SweepListing(ctx, listingID)
		if err != nil {
			log.Printf("sweeper: failed to expire spotlight on listing %d: %v", listingID, err)
			continue
		}
		if expired {
			count++
		}
	}
	return count, nil
}

// SweepListing expires the spotlight of one listing if its active
// window has lapsed. Status and end time are re-checked on the locked
// row, so a concurrent remove or pause that committed first wins and
// this sweep backs off. Returns whether a row was expired.
func (s *SpotlightSweeper) SweepListing(ctx context.Context, listingID int) (bool, error) {
	var (
		spotlight *models.Spotlight
		listing   *models.Listing
		expired   bool
	)

	err := s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spotlight, err = s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if spotlight == nil || !spotlight.IsActive() || !spotlight.LapsedAt(s.clock.Now()) {
			return nil
		}

		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}

		spotlight.Status = models.SpotlightStatusExpired
		expired = true
		if err := s.spotlights.Save(txCtx, spotlight); err != nil {
			return err
		}

		if err := s.listings.SetSpotlightFlags(txCtx, listingID, false, nil); err != nil {
			return err
		}

		// Time-driven expiry, not actor-driven: removed_by stays null.
		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        models.SpotlightActionExpired,
			AppliedBy:     spotlight.AppliedBy,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to sweep listing %d: %w", listingID, err)
	}
	if !expired {
		return false, nil
	}

	s.cache.Invalidate(ctx, listingID)
	publishTransitionEvent(EventSpotlightExpired, spotlight.SpotlightID, listingID,
		nil, spotlight.Status, spotlight.StartTime, spotlight.EndTime)

	if s.notify != nil && listing != nil {
		s.notify.NotifyOwner(ctx, listing, "Spotlight ended",
			fmt.Sprintf("The spotlight on your listing %q has ended.", listing.Title), "info")
	}

	return true, nil
}

// Start runs the sweep loop until ctx is done. One sweep fires
// immediately so a restart catches up without waiting a full interval.
func (s *SpotlightSweeper) Start(ctx context.Context) {
	log.Printf("sweeper: started with interval %s", s.interval)

	if count, err := s.SweepExpired(ctx); err != nil {
		log.Printf("sweeper: initial sweep failed: %v", err)
	} else if count > 0 {
		log.Printf("sweeper: expired %d spotlight(s)", count)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			if count, err := s.SweepExpired(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if count > 0 {
				log.Printf("sweeper: expired %d spotlight(s)", count)
			}
		}
	}
}
