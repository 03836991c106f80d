package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Per-symbol analysis failures wrap one of these
// sentinels so callers can decide between skipping a cycle, disabling a
// feature, or surfacing the failure.
var (
	// ErrInsufficientData: not enough bars or news to evaluate.
	// Recoverable; skip the symbol this cycle.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrCollaboratorUnavailable: an external call (news, market data,
	// sentiment, persistence, brokerage) failed. Recoverable at the
	// per-symbol or per-operation granularity.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrConfiguration: required credentials or keys are missing. Fatal
	// at startup for required features; optional features are disabled
	// instead.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound: a referenced entity does not exist. Surfaced to the
	// caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrTerminalState: a status transition was attempted out of a
	// terminal state.
	ErrTerminalState = errors.New("entity is in a terminal state")
)

// CollaboratorError wraps err as an ErrCollaboratorUnavailable naming
// the collaborator that failed.
func CollaboratorError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCollaboratorUnavailable, name, err)
}

// InsufficientDataError reports how many samples were available vs needed.
func InsufficientDataError(what string, got, want int) error {
	return fmt.Errorf("%w: %s: have %d, need %d", ErrInsufficientData, what, got, want)
}
