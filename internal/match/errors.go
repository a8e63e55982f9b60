package match

import "errors"

// Build and derivation failures. Every derivation fails typed rather than
// returning a zero value when its prerequisite data is missing; callers
// decide whether to substitute defaults.
var (
	ErrMissingMatchID         = errors.New("match id never captured")
	ErrMissingStartBoundary   = errors.New("match start boundary never captured")
	ErrMissingEndBoundary     = errors.New("match end boundary never captured")
	ErrControllerSeatNotFound = errors.New("controller seat not found in any connect ack")
	ErrPlayersNotFound        = errors.New("player roster not found")
	ErrDecksNotFound          = errors.New("no decklists found")
	ErrResultsNotFound        = errors.New("final result list not found")
	ErrStartTimeNotFound      = errors.New("no telemetry event carried a timestamp")
	ErrFormatNotFound         = errors.New("no telemetry event carried a format label")
	ErrMulliganMismatch       = errors.New("opening hand captures do not match mulligan offers")
)
