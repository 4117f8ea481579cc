package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/1kuna/kindle-lock/pkg/vault"
)

// manualSurface is a capture strategy for environments without an
// embeddable browser: the user logs in with their own browser and
// pastes the required cookie values (and optionally the device serial
// from the registration call visible in devtools) at the prompt.
//
// Credential values are read without terminal echo.
type manualSurface struct {
	mu       sync.Mutex
	in       *os.File
	out      io.Writer
	observer func(url string)
	cookies  []vault.Cookie
}

// NewManualSurface creates a Surface that collects credentials from
// terminal prompts instead of a driven browser.
func NewManualSurface(in *os.File, out io.Writer) Surface {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &manualSurface{in: in, out: out}
}

func (s *manualSurface) ObserveRequests(fn func(url string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Navigate prints instructions and collects the credential values. The
// device serial, when given, is replayed through the observer as a
// synthetic registration URL so capture behaves the same as with a
// driven browser.
func (s *manualSurface) Navigate(_ context.Context, url string) error {
	fmt.Fprintf(s.out, "Open %s in your browser and log in.\n", url)
	fmt.Fprintln(s.out, "Then copy the cookie values from your browser's devtools.")

	auth, err := readSecret(s.in, s.out, fmt.Sprintf("%s cookie value: ", vault.CookieAuth))
	if err != nil {
		return fmt.Errorf("failed to read cookie value: %w", err)
	}
	sid, err := readSecret(s.in, s.out, fmt.Sprintf("%s cookie value: ", vault.CookieSessionID))
	if err != nil {
		return fmt.Errorf("failed to read cookie value: %w", err)
	}
	serial, err := readSecret(s.in, s.out, "device serial (optional, Enter to skip): ")
	if err != nil {
		return fmt.Errorf("failed to read device serial: %w", err)
	}

	s.mu.Lock()
	s.cookies = nil
	if auth != "" {
		s.cookies = append(s.cookies, vault.Cookie{Name: vault.CookieAuth, Value: auth, Domain: DefaultDomain})
	}
	if sid != "" {
		s.cookies = append(s.cookies, vault.Cookie{Name: vault.CookieSessionID, Value: sid, Domain: DefaultDomain})
	}
	observer := s.observer
	s.mu.Unlock()

	if serial != "" && observer != nil {
		observer(fmt.Sprintf("https://read.amazon.com/%s?%s=%s", deviceTokenMarker, serialNumberParam, serial))
	}
	return nil
}

func (s *manualSurface) Cookies(_ string) ([]vault.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]vault.Cookie, len(s.cookies))
	copy(out, s.cookies)
	return out, nil
}

func (s *manualSurface) ClearData(_ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}

func (s *manualSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}
