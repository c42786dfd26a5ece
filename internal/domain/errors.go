package domain

import "errors"

// Domain errors.
var (
	ErrNotFound            = errors.New("giveaway not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInsufficientEntries = errors.New("not enough entries")
	ErrAlreadyResolved     = errors.New("giveaway already resolved")
	ErrNotOpen             = errors.New("giveaway is not open")
	ErrNotResolved         = errors.New("giveaway has not been resolved")
	ErrNoParticipants      = errors.New("giveaway has no participants")
	ErrDuplicateID         = errors.New("giveaway id already exists")
	ErrInvalidGiveaway     = errors.New("invalid giveaway")
	ErrPersistence         = errors.New("persistence failure")
	ErrNotification        = errors.New("notification failure")
	ErrNoSession           = errors.New("no wizard session")
	ErrInvalidInput        = errors.New("invalid input")
	ErrWizardIncomplete    = errors.New("wizard is not complete")
	ErrUnknownDestination  = errors.New("unknown destination")
	ErrForbidden           = errors.New("not allowed")
)
