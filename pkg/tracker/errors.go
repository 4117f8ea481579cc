package tracker

import "errors"

var (
	// ErrNeverSynced indicates no refresh cycle has succeeded yet.
	ErrNeverSynced = errors.New("no successful sync yet")
)
