// Package vault provides encrypted persistence for upstream session
// credentials.
//
// The vault is the only component that stores credential material. A
// Session is the harvested cookie set plus the optional device tokens;
// it is written as a single encrypted blob so a partially persisted
// session can never be observed.
//
// Example usage:
//
//	v, err := vault.New(vault.Config{KeyPath: keyPath}, st, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := v.Load()
//	if errors.Is(err, vault.ErrNoSession) {
//	    // run the login flow
//	}
package vault

import "time"

// Cookie names that must both be present for a Session to be usable.
// Absence of either means "not authenticated" regardless of any other
// cookies in the set.
const (
	// CookieAuth is the upstream authentication cookie.
	CookieAuth = "at-main"

	// CookieSessionID is the upstream session identifier cookie.
	CookieSessionID = "session-id"
)

// Cookie is a persisted HTTP cookie.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Session is the credential bundle for the upstream service.
//
// Lifetime: created by the login flow; marked invalid (not deleted) when
// upstream denies authorization; replaced only by a new login.
type Session struct {
	// Cookies harvested from the login flow.
	Cookies []Cookie `json:"cookies"`

	// DeviceToken is the device-registration token observed during
	// login. Optional; the position client can operate without it until
	// a device-session handshake is needed.
	DeviceToken string `json:"device_token,omitempty"`

	// SessionToken is the derived device-session token obtained from the
	// token-exchange handshake. Optional until first derived.
	SessionToken string `json:"session_token,omitempty"`

	// CreatedAt is when the session was established.
	CreatedAt time.Time `json:"created_at"`

	// Invalid is set when upstream rejects the session (401/403).
	// The credential material is retained for diagnostics but must not
	// be used for further requests.
	Invalid bool `json:"invalid,omitempty"`
}

// Cookie returns the value of the named cookie, or "" if absent.
func (s *Session) Cookie(name string) string {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// HasRequiredCookies reports whether both required cookies are present.
func (s *Session) HasRequiredCookies() bool {
	return s.Cookie(CookieAuth) != "" && s.Cookie(CookieSessionID) != ""
}

// Usable reports whether the session may be used for upstream requests.
func (s *Session) Usable() bool {
	return !s.Invalid && s.HasRequiredCookies()
}

// Vault stores the upstream Session encrypted at rest.
//
// All methods are safe for concurrent use; writes are atomic
// read-modify-write operations against the backing store.
type Vault interface {
	// Load retrieves the stored session.
	//
	// Returns:
	//   - The session if one is stored
	//   - ErrNoSession if the vault is empty
	//   - Error for storage or decryption failures
	Load() (*Session, error)

	// Save stores a session, replacing any existing one.
	// The session must contain both required cookies.
	Save(sess *Session) error

	// SetSessionToken records the derived device-session token on the
	// stored session without touching the rest of the bundle.
	SetSessionToken(token string) error

	// Invalidate marks the stored session invalid. The credential blob
	// is retained. Invalidating an empty vault is not an error.
	Invalidate() error

	// Clear removes all stored credential material.
	Clear() error
}

// Config contains vault configuration.
type Config struct {
	// KeyPath is the encryption key file. Created with a fresh random
	// key (0600) on first use if absent.
	KeyPath string
}
