package auth

import "errors"

var (
	// ErrLoginIncomplete indicates the user confirmed login but the
	// required cookies were not present. The surface stays open.
	ErrLoginIncomplete = errors.New("login incomplete: required cookies not found")

	// ErrLoginCancelled indicates the user abandoned the login flow.
	ErrLoginCancelled = errors.New("login cancelled")

	// ErrLoginTimeout indicates the bounded confirmation wait expired.
	ErrLoginTimeout = errors.New("login confirmation timed out")

	// ErrNoSurface indicates an operation that needs an open surface
	// was called without one.
	ErrNoSurface = errors.New("no login surface open")
)
