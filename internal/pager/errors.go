package pager

import "errors"

var (
	// ErrEmptySequence is returned when a session with pagination enabled is
	// given an empty page sequence.
	ErrEmptySequence = errors.New("page sequence is empty")

	// ErrOutOfRange is returned by the guarded index setter for an index
	// outside [0, len).
	ErrOutOfRange = errors.New("page index out of range")

	// ErrAlreadyArmed is returned when a lifetime timer is started twice.
	ErrAlreadyArmed = errors.New("lifetime timer already armed")

	// ErrAlreadyBuilt is returned when Build is called on an active session.
	ErrAlreadyBuilt = errors.New("session already built")

	// ErrSessionEnded is returned by every mutating method once the session
	// has terminated; there is no listener left to observe the change.
	ErrSessionEnded = errors.New("session has ended")

	// ErrNotBuilt is returned by operations that require an active session.
	ErrNotBuilt = errors.New("session not built")

	// ErrConflictingTimerMode is returned when both the per-page time bonus
	// and reset-on-page are configured; the modes are mutually exclusive.
	ErrConflictingTimerMode = errors.New("time-per-page and reset-on-page are mutually exclusive")
)
