package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/vault"
)

// authenticator implements Authenticator over a Surface and a
// CredentialStore.
type authenticator struct {
	config   Config
	surface  Surface
	creds    CredentialStore
	observer *tokenObserver
	open     bool
	logger   logger.Logger
}

// New creates an Authenticator.
func New(config Config, surface Surface, creds CredentialStore, log logger.Logger) (Authenticator, error) {
	if surface == nil {
		return nil, fmt.Errorf("surface is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if log == nil {
		log = logger.Default()
	}

	if config.LoginURL == "" {
		config.LoginURL = DefaultLoginURL
	}
	if config.Domain == "" {
		config.Domain = DefaultDomain
	}
	if config.LoginWait <= 0 {
		config.LoginWait = DefaultLoginWait
	}

	return &authenticator{
		config:  config,
		surface: surface,
		creds:   creds,
		logger:  log.With("component", "auth"),
	}, nil
}

// BeginLogin implements Authenticator.BeginLogin.
func (a *authenticator) BeginLogin(ctx context.Context) error {
	// Hooks go in before the first navigation so the registration
	// call fired during page load is not missed.
	a.observer = &tokenObserver{}
	a.surface.ObserveRequests(a.observer.observe)

	if err := a.surface.Navigate(ctx, a.config.LoginURL); err != nil {
		return fmt.Errorf("failed to open login surface: %w", err)
	}

	a.open = true
	a.logger.Info("login surface opened", "url", a.config.LoginURL)
	return nil
}

// CompleteLogin implements Authenticator.CompleteLogin.
func (a *authenticator) CompleteLogin(ctx context.Context) (*vault.Session, error) {
	if !a.open {
		return nil, ErrNoSurface
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cookies, err := a.surface.Cookies(a.config.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	sess := &vault.Session{
		Cookies:     cookies,
		DeviceToken: a.observer.Token(),
	}

	if !sess.HasRequiredCookies() {
		// Surface stays open so the user can finish logging in and
		// confirm again.
		return nil, ErrLoginIncomplete
	}

	if sess.DeviceToken == "" {
		// Non-fatal: the token can be re-derived later via the
		// device-token exchange.
		a.logger.Warn("device registration token not observed during login")
	}

	if err := a.creds.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	a.closeSurface()
	a.logger.Info("login complete",
		"cookies", len(sess.Cookies),
		"device_token", sess.DeviceToken != "")
	return sess, nil
}

// Cancel implements Authenticator.Cancel.
func (a *authenticator) Cancel() error {
	if !a.open {
		return nil
	}
	a.closeSurface()
	a.logger.Info("login cancelled")
	return nil
}

// Logout implements Authenticator.Logout. Both the credential store
// and the surface state are wiped even when one of the two fails.
func (a *authenticator) Logout() error {
	var errs []error

	if err := a.creds.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear credentials: %w", err))
	}
	if err := a.surface.ClearData(a.config.Domain); err != nil {
		errs = append(errs, fmt.Errorf("failed to wipe surface state: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.logger.Info("logged out", "domain", a.config.Domain)
	return nil
}

func (a *authenticator) closeSurface() {
	if err := a.surface.Close(); err != nil {
		a.logger.Warn("failed to close login surface", "error", err)
	}
	a.open = false
}

// Login runs the full interactive flow: open the surface, wait for the
// user's confirmation (bounded by LoginWait), then harvest. confirm is
// polled once per confirmation attempt; it blocks until the user
// signals done (true) or aborts (false).
func Login(ctx context.Context, a Authenticator, confirm func(ctx context.Context) (bool, error), wait time.Duration) (*vault.Session, error) {
	if wait <= 0 {
		wait = DefaultLoginWait
	}

	if err := a.BeginLogin(ctx); err != nil {
		return nil, err
	}

	deadline, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		ok, err := confirm(deadline)
		if err != nil {
			_ = a.Cancel()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrLoginTimeout
			}
			return nil, err
		}
		if !ok {
			_ = a.Cancel()
			return nil, ErrLoginCancelled
		}

		sess, err := a.CompleteLogin(deadline)
		if errors.Is(err, ErrLoginIncomplete) {
			// Let the user finish and confirm again within the same
			// bounded wait.
			continue
		}
		if err != nil {
			_ = a.Cancel()
			return nil, err
		}
		return sess, nil
	}
}
