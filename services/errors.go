package services

import "errors"

// Typed failures returned by the spotlight services. Controllers map
// these onto HTTP statuses; the bulk processor records them per listing
// instead of aborting the batch.
var (
	// ErrInvalidWindow means the request carried neither or both of
	// duration_hours and custom_end_time, a non-preset duration, or an
	// end time that is not in the future.
	ErrInvalidWindow = errors.New("invalid spotlight window")

	// ErrInvalidBatch means the bulk envelope is malformed: unknown
	// action, empty ID list, or more than the allowed number of IDs.
	ErrInvalidBatch = errors.New("invalid bulk request")

	// ErrPermissionDenied means the actor lacks the capability for the
	// attempted operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrListingNotFound means the listing does not exist or is soft
	// deleted.
	ErrListingNotFound = errors.New("listing not found")

	// ErrSpotlightNotFound means the listing has no spotlight row at
	// all.
	ErrSpotlightNotFound = errors.New("spotlight not found")

	// ErrListingNotVerified means the listing exists but fails the
	// verification prerequisite for being spotlighted.
	ErrListingNotVerified = errors.New("listing is not verified")

	// ErrSpotlightAlreadyActive means an active window already covers
	// the listing.
	ErrSpotlightAlreadyActive = errors.New("spotlight already active")

	// ErrNoActiveSpotlight means the operation needs an active window
	// and none exists.
	ErrNoActiveSpotlight = errors.New("no active spotlight")

	// ErrNoPausedSpotlight means resume was called without a paused
	// window.
	ErrNoPausedSpotlight = errors.New("no paused spotlight")
)
