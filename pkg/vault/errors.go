package vault

import "errors"

// Common errors returned by the vault package.
var (
	// ErrNoSession is returned when the vault holds no session.
	ErrNoSession = errors.New("no session stored")

	// ErrMissingCookies is returned when saving a session without both
	// required cookies.
	ErrMissingCookies = errors.New("session is missing required cookies")

	// ErrCorruptVault is returned when the stored blob cannot be
	// decrypted or decoded. Usually means the key file was replaced.
	ErrCorruptVault = errors.New("vault contents cannot be decrypted")
)
