package progress

import "errors"

var (
	// ErrCorruptStats indicates the persisted daily state could not
	// be decoded.
	ErrCorruptStats = errors.New("corrupt daily stats")

	// ErrInvalidConfig indicates accounting settings are out of range.
	ErrInvalidConfig = errors.New("invalid accounting config")
)
