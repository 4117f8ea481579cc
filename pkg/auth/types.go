package auth

import (
	"context"
	"time"

	"github.com/1kuna/kindle-lock/pkg/vault"
)

const (
	// deviceTokenMarker identifies device-registration calls in the
	// surface's outgoing traffic.
	deviceTokenMarker = "registerDevice"

	// serialNumberParam carries the device-registration token.
	serialNumberParam = "serialNumber"

	// DefaultLoginURL is where the interactive flow starts.
	DefaultLoginURL = "https://read.amazon.com"

	// DefaultDomain scopes cookie harvesting and state wipes.
	DefaultDomain = "amazon.com"

	// DefaultLoginWait bounds how long an interactive login may sit
	// waiting for manual confirmation.
	DefaultLoginWait = 5 * time.Minute
)

// Surface is an interactive browser surface the authenticator drives
// through the upstream login flow. Implementations own the actual
// browser mechanics; the authenticator only sees navigation, cookies,
// and outgoing-request observation.
type Surface interface {
	// ObserveRequests installs a hook over outgoing requests. Must be
	// called before the first navigation or early traffic is lost.
	ObserveRequests(fn func(url string))

	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// Cookies returns all cookies scoped to the given domain family.
	Cookies(domain string) ([]vault.Cookie, error)

	// ClearData wipes all persisted browser state (cookies, cache,
	// storage) for the given domain family.
	ClearData(domain string) error

	// Close tears the surface down.
	Close() error
}

// CredentialStore is the subset of vault.Vault the authenticator needs.
type CredentialStore interface {
	Save(sess *vault.Session) error
	Clear() error
}

// Authenticator drives the interactive login flow.
type Authenticator interface {
	// BeginLogin opens the login surface with observation hooks
	// installed, then returns; the user completes login manually.
	BeginLogin(ctx context.Context) error

	// CompleteLogin is invoked on explicit user confirmation. It
	// harvests cookies from the surface and persists a Session when
	// both required cookies are present. On ErrLoginIncomplete the
	// surface stays open so the user can retry.
	CompleteLogin(ctx context.Context) (*vault.Session, error)

	// Cancel abandons an in-flight login without persisting anything.
	Cancel() error

	// Logout clears stored credentials and wipes all surface state
	// for the upstream domain, unconditionally.
	Logout() error
}

// Config holds authenticator settings.
type Config struct {
	// LoginURL is the page the surface opens first.
	LoginURL string

	// Domain scopes cookie harvesting and logout wipes.
	Domain string

	// LoginWait bounds the manual-confirmation wait.
	LoginWait time.Duration
}
