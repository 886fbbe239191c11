package entities

import "errors"

// Domain errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("editing session not found")
	ErrSessionClosed   = errors.New("editing session closed")

	// Segment errors
	ErrSegmentNotFound = errors.New("segment not found")
	ErrSegmentLocked   = errors.New("segment is locked")

	// Decision errors
	ErrDecisionNotFound = errors.New("pending decision not found")
	ErrDecisionExpired  = errors.New("pending decision expired")
	ErrUnknownStrategy  = errors.New("strategy not part of decision")

	// Operation errors
	ErrOperationNotFound = errors.New("operation not found")

	// Sync errors
	ErrSyncNotRequired = errors.New("timeline already in sync")
	ErrSyncInProgress  = errors.New("sync regeneration already running")
)
