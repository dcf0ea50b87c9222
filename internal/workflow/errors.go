package workflow

import "errors"

// Non-fatal workflow errors, surfaced to the caller with the session left
// exactly as it was before the action started. Retrying is always safe:
// no action has a partial-write hazard.
var (
	ErrUnknownAction      = errors.New("unknown action")
	ErrPreconditionNotMet = errors.New("precondition not met")
	ErrValidationRejected = errors.New("validation rejected")
	ErrCompletion         = errors.New("completion failed")
	ErrPublish            = errors.New("publish failed")
	// ErrNotConfigured means the action needs an adapter whose credentials
	// were never supplied, e.g. execute without a sandbox API key.
	ErrNotConfigured = errors.New("not configured")
)
