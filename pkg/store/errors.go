package store

import "errors"

// Sentinel errors shared by both adapters. Callers match with
// errors.Is; adapters must never leak their medium's own failure types.
var (
	// ErrNotFound is returned when a write operation targets an
	// identifier that does not exist. Reads of missing entities return
	// an absent value instead.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when required fields are absent or
	// malformed.
	ErrValidation = errors.New("validation failed")

	// ErrTransport is returned when the remote backend is unreachable
	// or answers with a server failure.
	ErrTransport = errors.New("transport failed")
)
