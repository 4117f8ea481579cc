package kindle

import (
	"errors"
	"fmt"
)

// Common errors returned by the kindle package.
var (
	// ErrUnauthorized is returned when upstream rejects the session
	// (401/403). The session is marked invalid; the user must log in
	// again. Callers should fail fast rather than retry.
	ErrUnauthorized = errors.New("upstream rejected session credentials")

	// ErrMissingDeviceToken is returned when the device-session handshake
	// cannot run because no device-registration token is available, or
	// when the exchange response lacks a session token. Recoverable on a
	// later cycle once a token is observed.
	ErrMissingDeviceToken = errors.New("device token unavailable")

	// ErrNoMetadataURL is returned when a position response carries no
	// metadata URL, so book bounds cannot be fetched this cycle.
	ErrNoMetadataURL = errors.New("position response has no metadata URL")

	// ErrPageCapReached is reported (via logs, not as a failure) when
	// catalog pagination hits the hard page cap.
	ErrPageCapReached = errors.New("library pagination reached page cap")
)

// ServerError represents an upstream 5xx response. Transient: retry on
// the next scheduled cycle, never immediately.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upstream server error: status %d", e.StatusCode)
}

// HTTPError represents a non-2xx response that is neither an
// authorization failure nor a server error. Non-retryable within the
// cycle.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected upstream status %d", e.StatusCode)
}

// NetworkError represents a transport-level failure, distinct from any
// HTTP response. Callers may choose to retry sooner than for server
// errors.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError represents a malformed upstream response body.
// Non-retryable within the cycle.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is transient (server or network
// failure) and worth retrying on the next scheduled cycle.
func IsRetryable(err error) bool {
	var serverErr *ServerError
	var netErr *NetworkError
	return errors.As(err, &serverErr) || errors.As(err, &netErr)
}
