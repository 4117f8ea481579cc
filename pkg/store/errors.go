package store

import "errors"

// Common errors returned by the store package.
var (
	// ErrKeyNotFound is returned when no value exists for a key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)
