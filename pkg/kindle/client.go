package kindle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/vault"
)

// sessionIDHeader carries the session-id cookie value on every request.
const sessionIDHeader = "x-amzn-sessionid"

// adpTokenHeader carries the derived device-session token on position
// and bounds requests.
const adpTokenHeader = "x-adp-session-token"

// maxBodySize caps response bodies to guard against runaway payloads.
const maxBodySize = 8 * 1024 * 1024

// client implements the Client interface.
type client struct {
	config   Config
	http     *http.Client
	sessions SessionSource
	logger   logger.Logger
}

// New creates an upstream API client.
//
// Parameters:
//   - cfg: Client configuration
//   - sessions: Credential source (normally the vault)
//   - log: Logger instance
//
// Returns:
//   - Configured Client
//   - Error if configuration is invalid
func New(cfg Config, sessions SessionSource, log logger.Logger) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source is required")
	}

	// Set defaults.
	if cfg.RecentPageSize == 0 {
		cfg.RecentPageSize = 10
	}
	if cfg.MaxLibraryPages == 0 {
		cfg.MaxLibraryPages = 20
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "kindle-lock/1.0"
	}

	return &client{
		config:   cfg,
		http:     &http.Client{},
		sessions: sessions,
		logger:   log,
	}, nil
}

// session loads the current session and fail-fasts on unusable
// credentials so a dead session never produces a request storm.
func (c *client) session() (*vault.Session, error) {
	sess, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !sess.Usable() {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

// get issues an authenticated GET and returns the response body.
//
// Classification of failures follows a single shared policy:
//   - 401/403 invalidates the session and returns ErrUnauthorized
//   - 5xx returns *ServerError (retryable next cycle)
//   - other non-2xx returns *HTTPError
//   - transport failures return *NetworkError
//
// extraHeaders are attached verbatim (used for the derived session
// token).
func (c *client) get(ctx context.Context, url string, timeout time.Duration, extraHeaders map[string]string) ([]byte, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	for _, cookie := range sess.Cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	if sid := sess.Cookie(vault.CookieSessionID); sid != "" {
		req.Header.Set(sessionIDHeader, sid)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if err := c.classify(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	return body, nil
}

// classify maps a response status to the shared failure taxonomy.
func (c *client) classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Flip global auth state; requests already in flight are
		// unaffected, but the next cycle fails fast.
		if err := c.sessions.Invalidate(); err != nil {
			c.logger.Error("failed to invalidate session", "error", err)
		}
		return ErrUnauthorized

	case status >= 500:
		return &ServerError{StatusCode: status}

	default:
		return &HTTPError{StatusCode: status}
	}
}

// decodeJSON decodes body into v, wrapping failures as *DecodeError.
func decodeJSON(endpoint string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}
