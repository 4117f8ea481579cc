package vault

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/store"
)

func newTestVault(t *testing.T) (Vault, store.Store) {
	t.Helper()

	st := store.NewMemory()
	t.Cleanup(func() { _ = st.Close() })

	v, err := New(Config{
		KeyPath: filepath.Join(t.TempDir(), "vault.key"),
	}, st, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return v, st
}

func validSession() *Session {
	return &Session{
		Cookies: []Cookie{
			{Name: CookieAuth, Value: "at-token-value", Domain: ".amazon.com"},
			{Name: CookieSessionID, Value: "137-0000000-0000000", Domain: ".amazon.com"},
			{Name: "ubid-main", Value: "131-1111111-1111111", Domain: ".amazon.com"},
		},
		DeviceToken: "A1B2C3D4E5",
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sess, err := v.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if sess.Cookie(CookieAuth) != "at-token-value" {
		t.Errorf("Cookie(at-main) = %q, want %q", sess.Cookie(CookieAuth), "at-token-value")
	}
	if sess.DeviceToken != "A1B2C3D4E5" {
		t.Errorf("DeviceToken = %q, want A1B2C3D4E5", sess.DeviceToken)
	}
	if !sess.Usable() {
		t.Error("loaded session should be usable")
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on save")
	}
}

func TestLoadEmpty(t *testing.T) {
	v, _ := newTestVault(t)

	if _, err := v.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession", err)
	}
}

func TestSaveRejectsIncompleteCookies(t *testing.T) {
	v, _ := newTestVault(t)

	tests := []struct {
		name string
		sess *Session
	}{
		{"nil session", nil},
		{"no cookies", &Session{}},
		{
			"auth cookie only",
			&Session{Cookies: []Cookie{{Name: CookieAuth, Value: "x"}}},
		},
		{
			"session-id cookie only",
			&Session{Cookies: []Cookie{{Name: CookieSessionID, Value: "x"}}},
		},
		{
			"other cookies present but required ones absent",
			&Session{Cookies: []Cookie{{Name: "ubid-main", Value: "x"}, {Name: "lc-main", Value: "y"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Save(tt.sess); !errors.Is(err, ErrMissingCookies) {
				t.Errorf("Save() error = %v, want ErrMissingCookies", err)
			}
		})
	}

	// Nothing may be persisted after rejected saves.
	if _, err := v.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession (partial persist)", err)
	}
}

func TestEncryptedAtRest(t *testing.T) {
	v, st := newTestVault(t)

	if err := v.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	blob, err := st.Get("vault/session")
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}

	// The raw blob must not contain credential plaintext.
	for _, secret := range []string{"at-token-value", "137-0000000-0000000", "A1B2C3D4E5"} {
		if bytes.Contains(blob, []byte(secret)) {
			t.Errorf("stored blob contains plaintext %q", secret)
		}
	}
}

func TestInvalidate(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := v.Invalidate(); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	sess, err := v.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !sess.Invalid {
		t.Error("session should be marked invalid")
	}
	if sess.Usable() {
		t.Error("invalidated session must not be usable")
	}
	// Credential material is retained, not deleted.
	if sess.Cookie(CookieAuth) == "" {
		t.Error("cookies should survive invalidation")
	}
}

func TestInvalidateEmptyVault(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Invalidate(); err != nil {
		t.Errorf("Invalidate() on empty vault error = %v", err)
	}
}

func TestSetSessionToken(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := v.SetSessionToken("derived-token"); err != nil {
		t.Fatalf("SetSessionToken() error = %v", err)
	}

	sess, err := v.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.SessionToken != "derived-token" {
		t.Errorf("SessionToken = %q, want derived-token", sess.SessionToken)
	}
	// The rest of the bundle is untouched.
	if sess.DeviceToken != "A1B2C3D4E5" {
		t.Errorf("DeviceToken = %q, want A1B2C3D4E5", sess.DeviceToken)
	}
}

func TestSetSessionTokenEmptyVault(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.SetSessionToken("x"); !errors.Is(err, ErrNoSession) {
		t.Errorf("SetSessionToken() error = %v, want ErrNoSession", err)
	}
}

func TestClear(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := v.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, err := v.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() after Clear() error = %v, want ErrNoSession", err)
	}

	// Clearing an already-empty vault is fine.
	if err := v.Clear(); err != nil {
		t.Errorf("Clear() on empty vault error = %v", err)
	}
}

func TestKeyReuseAcrossInstances(t *testing.T) {
	st := store.NewMemory()
	defer func() { _ = st.Close() }()
	keyPath := filepath.Join(t.TempDir(), "vault.key")

	v1, err := New(Config{KeyPath: keyPath}, st, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v1.Save(validSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A second vault with the same key file decrypts the same blob.
	v2, err := New(Config{KeyPath: keyPath}, st, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sess, err := v2.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Cookie(CookieSessionID) == "" {
		t.Error("session-id cookie missing after reopen")
	}
}

func TestUsablePredicate(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{
			"both cookies present",
			Session{Cookies: []Cookie{{Name: CookieAuth, Value: "a"}, {Name: CookieSessionID, Value: "b"}}},
			true,
		},
		{
			"invalidated",
			Session{Invalid: true, Cookies: []Cookie{{Name: CookieAuth, Value: "a"}, {Name: CookieSessionID, Value: "b"}}},
			false,
		},
		{"empty", Session{}, false},
		{
			"empty cookie value",
			Session{Cookies: []Cookie{{Name: CookieAuth, Value: ""}, {Name: CookieSessionID, Value: "b"}}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
