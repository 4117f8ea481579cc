package auth

import (
	"net/url"
	"strings"
	"sync"
)

// tokenObserver watches outgoing requests for the device-registration
// call and captures the serialNumber it carries. Multiple interception
// points (fetch, XHR, beacon) may report the same request: the first
// observed token wins and later observations are ignored.
type tokenObserver struct {
	mu    sync.Mutex
	token string
}

// observe inspects a single outgoing request URL. Safe for concurrent
// use.
func (o *tokenObserver) observe(rawURL string) {
	if !strings.Contains(rawURL, deviceTokenMarker) {
		return
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}

	serial := u.Query().Get(serialNumberParam)
	if serial == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.token == "" {
		o.token = serial
	}
}

// Token returns the captured device-registration token, or "" if none
// was observed.
func (o *tokenObserver) Token() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.token
}
