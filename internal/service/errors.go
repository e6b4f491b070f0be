package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrPermissionDenied is returned when the actor's org may not touch the resource
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoActiveRevision is returned when no pricebook revision with active
	// status exists. Fatal for any flow that needs current pricing; callers
	// must surface it, never substitute a stale or zero price.
	ErrNoActiveRevision = errors.New("no active pricebook revision")

	// ErrRevisionImmutable is returned on attempts to change prices under a
	// revision that has left draft status. Corrections require a new revision.
	ErrRevisionImmutable = errors.New("pricebook revision is immutable")

	// ErrLowConfidence is returned when applying an AI suggestion whose
	// confidence is below the auto-apply threshold
	ErrLowConfidence = errors.New("suggestion confidence below threshold")

	// ErrSuggestionResolved is returned when applying or dismissing a
	// suggestion that was already applied or dismissed
	ErrSuggestionResolved = errors.New("suggestion already resolved")

	// ErrEstimateNotDraft is returned when mutating lines of an estimate
	// that has left draft status
	ErrEstimateNotDraft = errors.New("estimate is not in draft status")
)
