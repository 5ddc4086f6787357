package usecases

import "errors"

var (
	// ErrInvalidCount is returned when a density is requested for a non-positive count.
	ErrInvalidCount = errors.New("count must be a positive integer")
	// ErrClusterNotFound is returned when no cluster exists at the requested location.
	ErrClusterNotFound = errors.New("no cluster at location")
	// ErrSessionNotFound is returned for unknown or already closed session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when a closed session is asked to do work.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionLimit is returned when opening a session would exceed the configured maximum.
	ErrSessionLimit = errors.New("too many open sessions")
)
