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

// SpotlightWindow is a validated promotion window request: either one
// of the preset durations or an explicit future end time, never both.
type SpotlightWindow struct {
	DurationHours *int
	CustomEndTime *time.Time
}

// Accepted layouts for custom_end_time. Zone-less values are read as
// UTC.
var customEndTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseSpotlightWindow validates the apply/edit payload shape. Exactly
// one of duration_hours and custom_end_time must be present; durations
// must be one of the presets.
func ParseSpotlightWindow(req models.SpotlightRequest) (SpotlightWindow, error) {
	hasDuration := req.DurationHours != nil
	hasCustom := req.CustomEndTime != nil && *req.CustomEndTime != ""

	if hasDuration == hasCustom {
		return SpotlightWindow{}, fmt.Errorf("%w: provide either duration_hours or custom_end_time", ErrInvalidWindow)
	}

	if hasDuration {
		valid := false
		for _, preset := range models.SpotlightPresetHours {
			if *req.DurationHours == preset {
				valid = true
				break
			}
		}
		if !valid {
			return SpotlightWindow{}, fmt.Errorf("%w: duration_hours must be one of %v", ErrInvalidWindow, models.SpotlightPresetHours)
		}
		return SpotlightWindow{DurationHours: req.DurationHours}, nil
	}

	for _, layout := range customEndTimeLayouts {
		parsed, err := time.ParseInLocation(layout, *req.CustomEndTime, time.UTC)
		if err == nil {
			endTime := parsed.UTC()
			return SpotlightWindow{CustomEndTime: &endTime}, nil
		}
	}
	return SpotlightWindow{}, fmt.Errorf("%w: custom_end_time %q is not a valid timestamp", ErrInvalidWindow, *req.CustomEndTime)
}

// resolveApply computes the window for a fresh spotlight starting now.
// A custom end time must lie in the future.
func (w SpotlightWindow) resolveApply(now time.Time) (time.Time, int, error) {
	if w.DurationHours != nil {
		hours := *w.DurationHours
		return now.Add(time.Duration(hours) * time.Hour), hours, nil
	}
	end := *w.CustomEndTime
	if !end.After(now) {
		return time.Time{}, 0, fmt.Errorf("%w: custom_end_time must be in the future", ErrInvalidWindow)
	}
	return end, models.DurationHoursBetween(now, end), nil
}

// resolveEdit recomputes the window of an existing spotlight. The start
// is preserved, so a preset duration counts from the original start. A
// past end is allowed here; the edit then expires the spotlight.
func (w SpotlightWindow) resolveEdit(start time.Time) (time.Time, int) {
	if w.DurationHours != nil {
		hours := *w.DurationHours
		return start.Add(time.Duration(hours) * time.Hour), hours
	}
	end := *w.CustomEndTime
	return end, models.DurationHoursBetween(start, end)
}

// SpotlightService runs the spotlight lifecycle. Every transition is
// one transaction covering the spotlight row, the listing flags and the
// history append; audit, events, notifications and cache invalidation
// happen after commit and are best-effort.
type SpotlightService struct {
	spotlights SpotlightStore
	history    HistoryLedger
	listings   ListingStore
	gate       PermissionGate
	clock      Clock
	audit      AuditSink
	notify     OwnerNotifier
	cache      *StatusCache
}

func NewSpotlightService(db *gorm.DB, clk Clock) *SpotlightService {
	if db == nil {
		db = config.DB
	}
	if clk == nil {
		clk = SystemClock()
	}
	return &SpotlightService{
		spotlights: NewSpotlightStore(db),
		history:    NewHistoryLedger(db),
		listings:   NewListingStore(db),
		gate:       NewPermissionService(db),
		clock:      clk,
		audit:      NewAuditService(db),
		notify:     NewNotificationService(db),
		cache:      NewStatusCache(config.RedisClient),
	}
}

type transitionEffects struct {
	action      string
	eventType   string
	spotlight   *models.Spotlight
	listing     *models.Listing
	actorID     int
	description string
	oldValues   *string
	newValues   *string
	meta        RequestMeta
	notifyTitle string
	notifyBody  string
	notifyType  string
}

func (s *SpotlightService) finishTransition(ctx context.Context, fx transitionEffects) {
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:      fx.actorID,
			Action:      fx.action,
			EntityType:  "spotlight",
			EntityID:    &fx.spotlight.SpotlightID,
			OldValues:   fx.oldValues,
			NewValues:   fx.newValues,
			Description: stringPtr(fx.description),
			Meta:        fx.meta,
		})
	}

	s.cache.Invalidate(ctx, fx.spotlight.ListingID)

	actorID := fx.actorID
	publishTransitionEvent(fx.eventType, fx.spotlight.SpotlightID, fx.spotlight.ListingID,
		&actorID, fx.spotlight.Status, fx.spotlight.StartTime, fx.spotlight.EndTime)

	if fx.notifyTitle != "" && s.notify != nil && fx.listing != nil {
		s.notify.NotifyOwner(ctx, fx.listing, fx.notifyTitle, fx.notifyBody, fx.notifyType)
	}
}

// Apply promotes a listing into the spotlight for the given window.
// A terminal row left over from a previous window is reused; a live
// (active or paused) window rejects the apply.
func (s *SpotlightService) Apply(ctx context.Context, listingID, actorID int, req models.SpotlightRequest, meta RequestMeta) (*models.Spotlight, error) {
	if err := s.gate.CanApplySpotlight(ctx, actorID); err != nil {
		return nil, err
	}

	window, err := ParseSpotlightWindow(req)
	if err != nil {
		return nil, err
	}

	var (
		spotlight *models.Spotlight
		listing   *models.Listing
	)

	err = s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return fmt.Errorf("listing %d: %w", listingID, ErrListingNotFound)
		}
		if !listing.IsVerified {
			return fmt.Errorf("listing %d: %w", listingID, ErrListingNotVerified)
		}

		now := s.clock.Now()
		endTime, hours, err := window.resolveApply(now)
		if err != nil {
			return err
		}

		existing, err := s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}

		if existing != nil && !existing.IsEnded() {
			return fmt.Errorf("listing %d: %w", listingID, ErrSpotlightAlreadyActive)
		}

		if existing == nil {
			spotlight = &models.Spotlight{
				ListingID:     listingID,
				AppliedBy:     actorID,
				StartTime:     now,
				EndTime:       endTime,
				DurationHours: hours,
				Status:        models.SpotlightStatusActive,
			}
			if err := s.spotlights.Create(txCtx, spotlight); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// A concurrent apply won the unique listing_id index.
					return fmt.Errorf("listing %d: %w", listingID, ErrSpotlightAlreadyActive)
				}
				return err
			}
		} else {
			spotlight = existing
			spotlight.AppliedBy = actorID
			spotlight.StartTime = now
			spotlight.EndTime = endTime
			spotlight.DurationHours = hours
			spotlight.Status = models.SpotlightStatusActive
			if err := s.spotlights.Save(txCtx, spotlight); err != nil {
				return err
			}
		}

		if err := s.listings.SetSpotlightFlags(txCtx, listingID, true, &endTime); err != nil {
			return err
		}

		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        models.SpotlightActionActive,
			AppliedBy:     actorID,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return nil, err
	}

	s.finishTransition(ctx, transitionEffects{
		action:      "apply_spotlight",
		eventType:   EventSpotlightApplied,
		spotlight:   spotlight,
		listing:     listing,
		actorID:     actorID,
		description: fmt.Sprintf("Spotlight applied to listing %d until %s", listingID, spotlight.EndTime.Format(time.RFC3339)),
		newValues:   auditValues(spotlight),
		meta:        meta,
		notifyTitle: "Your listing is in the spotlight",
		notifyBody: fmt.Sprintf("Your listing %q is spotlighted until %s.",
			listing.Title, spotlight.EndTime.Format("2 Jan 2006 15:04 MST")),
		notifyType: "success",
	})

	return spotlight, nil
}

// Remove takes a listing out of the spotlight before its window ends.
// Works on active and paused windows.
func (s *SpotlightService) Remove(ctx context.Context, listingID, actorID int, reason string, meta RequestMeta) (*models.Spotlight, error) {
	if err := s.gate.CanRemoveSpotlight(ctx, actorID); err != nil {
		return nil, err
	}

	var (
		spotlight *models.Spotlight
		listing   *models.Listing
		oldValues *string
	)

	err := s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spotlight, err = s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if spotlight == nil || spotlight.IsEnded() {
			return fmt.Errorf("listing %d: %w", listingID, ErrNoActiveSpotlight)
		}

		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}

		oldValues = auditValues(spotlight)
		spotlight.Status = models.SpotlightStatusRemoved
		if err := s.spotlights.Save(txCtx, spotlight); err != nil {
			return err
		}

		if err := s.listings.SetSpotlightFlags(txCtx, listingID, false, nil); err != nil {
			return err
		}

		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        models.SpotlightActionRemoved,
			AppliedBy:     spotlight.AppliedBy,
			RemovedBy:     &actorID,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Spotlight removed from listing %d", listingID)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}

	notifyBody := "The spotlight on your listing was removed by a moderator."
	if listing != nil {
		notifyBody = fmt.Sprintf("The spotlight on your listing %q was removed by a moderator.", listing.Title)
	}

	s.finishTransition(ctx, transitionEffects{
		action:      "remove_spotlight",
		eventType:   EventSpotlightRemoved,
		spotlight:   spotlight,
		listing:     listing,
		actorID:     actorID,
		description: description,
		oldValues:   oldValues,
		newValues:   auditValues(spotlight),
		meta:        meta,
		notifyTitle: "Spotlight removed",
		notifyBody:  notifyBody,
		notifyType:  "warning",
	})

	return spotlight, nil
}

// Pause suspends an active spotlight without losing its window. The
// reason goes to the audit log only, never into history.
func (s *SpotlightService) Pause(ctx context.Context, listingID, actorID int, reason string, meta RequestMeta) (*models.Spotlight, bool, error) {
	if err := s.gate.CanRemoveSpotlight(ctx, actorID); err != nil {
		return nil, false, err
	}

	var (
		spotlight *models.Spotlight
		listing   *models.Listing
		oldValues *string
	)

	err := s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spotlight, err = s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if spotlight == nil || !spotlight.IsActive() {
			return fmt.Errorf("listing %d: %w", listingID, ErrNoActiveSpotlight)
		}

		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}

		oldValues = auditValues(spotlight)
		spotlight.Status = models.SpotlightStatusPaused
		if err := s.spotlights.Save(txCtx, spotlight); err != nil {
			return err
		}

		// Window timestamps stay untouched; a paused spotlight still
		// remembers when it would have expired.
		if err := s.listings.SetSpotlightFlags(txCtx, listingID, false, nil); err != nil {
			return err
		}

		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        models.SpotlightActionPaused,
			AppliedBy:     spotlight.AppliedBy,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return nil, false, err
	}

	description := fmt.Sprintf("Spotlight paused on listing %d", listingID)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}

	s.finishTransition(ctx, transitionEffects{
		action:      "pause_spotlight",
		eventType:   EventSpotlightPaused,
		spotlight:   spotlight,
		listing:     listing,
		actorID:     actorID,
		description: description,
		oldValues:   oldValues,
		newValues:   auditValues(spotlight),
		meta:        meta,
	})

	return spotlight, true, nil
}

// Resume reactivates a paused spotlight. Returns false without error
// when the window lapsed while paused (the row expires instead) or when
// the listing is no longer eligible (the row stays paused).
func (s *SpotlightService) Resume(ctx context.Context, listingID, actorID int, reason string, meta RequestMeta) (*models.Spotlight, bool, error) {
	if err := s.gate.CanRemoveSpotlight(ctx, actorID); err != nil {
		return nil, false, err
	}

	var (
		spotlight *models.Spotlight
		listing   *models.Listing
		oldValues *string
		resumed   bool
		expired   bool
	)

	err := s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spotlight, err = s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if spotlight == nil || !spotlight.IsPaused() {
			return fmt.Errorf("listing %d: %w", listingID, ErrNoPausedSpotlight)
		}

		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}

		oldValues = auditValues(spotlight)
		now := s.clock.Now()

		// Resuming never revives a window that lapsed while paused.
		if spotlight.LapsedAt(now) {
			spotlight.Status = models.SpotlightStatusExpired
			expired = true
			if err := s.spotlights.Save(txCtx, spotlight); err != nil {
				return err
			}
			if err := s.listings.SetSpotlightFlags(txCtx, listingID, false, nil); err != nil {
				return err
			}
			return s.history.Append(txCtx, &models.SpotlightHistory{
				SpotlightID:   &spotlight.SpotlightID,
				ListingID:     listingID,
				Action:        models.SpotlightActionExpired,
				AppliedBy:     spotlight.AppliedBy,
				StartTime:     spotlight.StartTime,
				EndTime:       spotlight.EndTime,
				DurationHours: spotlight.DurationHours,
			})
		}

		if listing == nil || !listing.IsVerified || !listing.IsActive {
			// Listing lost eligibility while paused. No transition.
			return nil
		}

		spotlight.Status = models.SpotlightStatusActive
		resumed = true
		if err := s.spotlights.Save(txCtx, spotlight); err != nil {
			return err
		}
		if err := s.listings.SetSpotlightFlags(txCtx, listingID, true, &spotlight.EndTime); err != nil {
			return err
		}
		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        models.SpotlightActionResumed,
			AppliedBy:     spotlight.AppliedBy,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return nil, false, err
	}

	if !resumed && !expired {
		// Nothing committed; the row is still paused.
		return spotlight, false, nil
	}

	description := fmt.Sprintf("Spotlight resumed on listing %d", listingID)
	eventType := EventSpotlightResumed
	var notifyTitle, notifyBody, notifyType string
	if expired {
		description = fmt.Sprintf("Spotlight on listing %d expired during resume (window lapsed while paused)", listingID)
		eventType = EventSpotlightExpired
		notifyTitle = "Spotlight ended"
		notifyType = "info"
		notifyBody = "The spotlight on your listing has ended."
		if listing != nil {
			notifyBody = fmt.Sprintf("The spotlight on your listing %q has ended.", listing.Title)
		}
	}
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}

	s.finishTransition(ctx, transitionEffects{
		action:      "resume_spotlight",
		eventType:   eventType,
		spotlight:   spotlight,
		listing:     listing,
		actorID:     actorID,
		description: description,
		oldValues:   oldValues,
		newValues:   auditValues(spotlight),
		meta:        meta,
		notifyTitle: notifyTitle,
		notifyBody:  notifyBody,
		notifyType:  notifyType,
	})

	return spotlight, resumed, nil
}

// Edit reshapes the window of an active spotlight. The original start
// is preserved; an edit whose recomputed end already passed expires
// the spotlight immediately instead of leaving a past-due active row.
func (s *SpotlightService) Edit(ctx context.Context, listingID, actorID int, req models.SpotlightRequest, meta RequestMeta) (*models.Spotlight, error) {
	if err := s.gate.CanApplySpotlight(ctx, actorID); err != nil {
		return nil, err
	}

	window, err := ParseSpotlightWindow(req)
	if err != nil {
		return nil, err
	}

	var (
		spotlight *models.Spotlight
		listing   *models.Listing
		oldValues *string
		expired   bool
	)

	err = s.spotlights.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spotlight, err = s.spotlights.GetByListingIDForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if spotlight == nil || !spotlight.IsActive() {
			return fmt.Errorf("listing %d: %w", listingID, ErrNoActiveSpotlight)
		}

		listing, err = s.listings.GetByID(txCtx, listingID)
		if err != nil {
			return err
		}

		oldValues = auditValues(spotlight)
		now := s.clock.Now()
		endTime, hours := window.resolveEdit(spotlight.StartTime)

		spotlight.EndTime = endTime
		spotlight.DurationHours = hours

		action := models.SpotlightActionEdited
		if !endTime.After(now) {
			spotlight.Status = models.SpotlightStatusExpired
			expired = true
			action = models.SpotlightActionExpired
		}

		if err := s.spotlights.Save(txCtx, spotlight); err != nil {
			return err
		}

		if expired {
			err = s.listings.SetSpotlightFlags(txCtx, listingID, false, nil)
		} else {
			err = s.listings.SetSpotlightFlags(txCtx, listingID, true, &endTime)
		}
		if err != nil {
			return err
		}

		return s.history.Append(txCtx, &models.SpotlightHistory{
			SpotlightID:   &spotlight.SpotlightID,
			ListingID:     listingID,
			Action:        action,
			AppliedBy:     spotlight.AppliedBy,
			StartTime:     spotlight.StartTime,
			EndTime:       spotlight.EndTime,
			DurationHours: spotlight.DurationHours,
		})
	})
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Spotlight window on listing %d changed to end at %s", listingID, spotlight.EndTime.Format(time.RFC3339))
	eventType := EventSpotlightEdited
	var notifyTitle, notifyBody, notifyType string
	if expired {
		description = fmt.Sprintf("Spotlight on listing %d expired by window edit", listingID)
		eventType = EventSpotlightExpired
		notifyTitle = "Spotlight ended"
		notifyType = "info"
		notifyBody = "The spotlight on your listing has ended."
		if listing != nil {
			notifyBody = fmt.Sprintf("The spotlight on your listing %q has ended.", listing.Title)
		}
	}

	s.finishTransition(ctx, transitionEffects{
		action:      "edit_spotlight",
		eventType:   eventType,
		spotlight:   spotlight,
		listing:     listing,
		actorID:     actorID,
		description: description,
		oldValues:   oldValues,
		newValues:   auditValues(spotlight),
		meta:        meta,
		notifyTitle: notifyTitle,
		notifyBody:  notifyBody,
		notifyType:  notifyType,
	})

	return spotlight, nil
}

// GetSpotlight returns the current spotlight row for a listing, or nil
// when none exists.
func (s *SpotlightService) GetSpotlight(ctx context.Context, listingID int) (*models.Spotlight, error) {
	return s.spotlights.GetByListingID(ctx, listingID)
}

// ListActive returns the active spotlight rows, soonest-expiring first.
func (s *SpotlightService) ListActive(ctx context.Context, offset, limit int) ([]models.Spotlight, int64, error) {
	return s.spotlights.ListActive(ctx, offset, limit)
}

// ListHistory returns the filtered transition ledger.
func (s *SpotlightService) ListHistory(ctx context.Context, filter HistoryFilter) ([]models.SpotlightHistory, int64, error) {
	return s.history.List(ctx, filter)
}
