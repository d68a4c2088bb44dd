package model

import "errors"

// Common errors used across the application
var (
	// Shuffle errors
	ErrTooFewParticipants      = errors.New("too few participants to shuffle")
	ErrDuplicateParticipant    = errors.New("duplicate participant in shuffle input")
	ErrTooManyExclusions       = errors.New("more exclusions than participants")
	ErrExclusionsUnsatisfiable = errors.New("no assignment satisfies the exclusion set")

	// Registry errors
	ErrRoundNotFound = errors.New("round not found")
)
