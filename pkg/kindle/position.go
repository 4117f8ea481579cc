package kindle

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	// startReadingPath is the per-book reading-state endpoint.
	startReadingPath = "/service/mobile/reader/startReading"

	// deviceTokenPath is the device-session-token exchange endpoint.
	deviceTokenPath = "/service/web/register/getDeviceToken"
)

// startReadingResponse is a partial decode of the reading-state payload.
// lastPageReadData and its position are optional: a book that has never
// been opened has neither.
type startReadingResponse struct {
	LastPageReadData *struct {
		Position *int `json:"position"`
	} `json:"lastPageReadData"`
	MetadataURL string `json:"metadataUrl"`
}

// metadataPayload is the JSONP-wrapped bounds document.
type metadataPayload struct {
	StartPosition *int `json:"startPosition"`
	EndPosition   *int `json:"endPosition"`
}

// deviceTokenResponse is the token-exchange payload.
type deviceTokenResponse struct {
	DeviceSessionToken string `json:"deviceSessionToken"`
}

// FetchPosition implements Client.FetchPosition.
func (c *client) FetchPosition(ctx context.Context, asin string) (Position, error) {
	q := url.Values{}
	q.Set("asin", asin)
	endpoint := c.config.BaseURL + startReadingPath + "?" + q.Encode()

	body, err := c.get(ctx, endpoint, c.config.RequestTimeout, c.tokenHeader())
	if err != nil {
		return Position{}, err
	}

	var resp startReadingResponse
	if err := decodeJSON(startReadingPath, body, &resp); err != nil {
		return Position{}, err
	}

	pos := Position{
		ASIN:        asin,
		MetadataURL: resp.MetadataURL,
	}

	// Absent position means "no position available", which excludes the
	// book from this refresh's contribution. Not an error.
	if resp.LastPageReadData != nil && resp.LastPageReadData.Position != nil {
		pos.Value = *resp.LastPageReadData.Position
		pos.HasPosition = true
	} else {
		c.logger.Debug("no reading position available", "asin", asin)
	}

	return pos, nil
}

// FetchBounds implements Client.FetchBounds.
func (c *client) FetchBounds(ctx context.Context, metadataURL string) (Bounds, error) {
	if metadataURL == "" {
		return Bounds{}, ErrNoMetadataURL
	}

	body, err := c.get(ctx, metadataURL, c.config.RequestTimeout, c.tokenHeader())
	if err != nil {
		return Bounds{}, err
	}

	inner, err := unwrapJSONP(body)
	if err != nil {
		return Bounds{}, &DecodeError{Endpoint: "metadata", Err: err}
	}

	var payload metadataPayload
	if err := decodeJSON("metadata", inner, &payload); err != nil {
		return Bounds{}, err
	}

	if payload.StartPosition == nil || payload.EndPosition == nil {
		return Bounds{}, &DecodeError{
			Endpoint: "metadata",
			Err:      fmt.Errorf("missing startPosition/endPosition"),
		}
	}

	return Bounds{
		Start: *payload.StartPosition,
		End:   *payload.EndPosition,
	}, nil
}

// EnsureSessionToken implements Client.EnsureSessionToken.
func (c *client) EnsureSessionToken(ctx context.Context) (string, error) {
	sess, err := c.session()
	if err != nil {
		return "", err
	}

	if sess.SessionToken != "" {
		return sess.SessionToken, nil
	}

	if sess.DeviceToken == "" {
		return "", ErrMissingDeviceToken
	}

	q := url.Values{}
	q.Set("serialNumber", sess.DeviceToken)
	q.Set("deviceType", sess.DeviceToken)
	endpoint := c.config.BaseURL + deviceTokenPath + "?" + q.Encode()

	// The handshake gets its own, longer timeout: registration is
	// noticeably slower than position fetches.
	body, err := c.get(ctx, endpoint, c.config.HandshakeTimeout, nil)
	if err != nil {
		return "", fmt.Errorf("device token exchange: %w", err)
	}

	var resp deviceTokenResponse
	if err := decodeJSON(deviceTokenPath, body, &resp); err != nil {
		return "", err
	}

	if resp.DeviceSessionToken == "" {
		return "", ErrMissingDeviceToken
	}

	if err := c.sessions.SetSessionToken(resp.DeviceSessionToken); err != nil {
		return "", fmt.Errorf("failed to persist session token: %w", err)
	}

	c.logger.Info("derived device session token")
	return resp.DeviceSessionToken, nil
}

// tokenHeader returns the derived-session-token header when one is
// cached, nil otherwise.
func (c *client) tokenHeader() map[string]string {
	sess, err := c.sessions.Load()
	if err != nil || sess.SessionToken == "" {
		return nil
	}
	return map[string]string{adpTokenHeader: sess.SessionToken}
}

// unwrapJSONP strips a callbackName(...) wrapper: everything before the
// first '(' and after the last ')' is discarded, leaving the interior
// for JSON decoding.
func unwrapJSONP(body []byte) ([]byte, error) {
	s := string(body)

	start := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSONP wrapper found")
	}

	return []byte(s[start+1 : end]), nil
}
