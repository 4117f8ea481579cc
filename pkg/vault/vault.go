package vault

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/store"
)

// storeKey is the store key under which the encrypted session blob lives.
const storeKey = "vault/session"

// vault implements the Vault interface over a key-value store.
type vault struct {
	store  store.Store
	logger logger.Logger
	aead   interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// New creates a vault backed by st, encrypting with the key at
// cfg.KeyPath. A missing key file is created with a fresh random key.
func New(cfg Config, st store.Store, log logger.Logger) (Vault, error) {
	key, err := loadOrCreateKey(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &vault{
		store:  st,
		logger: log,
		aead:   aead,
	}, nil
}

// Load implements Vault.Load.
func (v *vault) Load() (*Session, error) {
	blob, err := v.store.Get(storeKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	sess, err := v.decrypt(blob)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Save implements Vault.Save.
func (v *vault) Save(sess *Session) error {
	if sess == nil || !sess.HasRequiredCookies() {
		return ErrMissingCookies
	}

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	blob, err := v.encrypt(sess)
	if err != nil {
		return err
	}

	if err := v.store.Set(storeKey, blob); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}

	v.logger.Info("session saved",
		"cookies", len(sess.Cookies),
		"has_device_token", sess.DeviceToken != "")
	return nil
}

// SetSessionToken implements Vault.SetSessionToken.
func (v *vault) SetSessionToken(token string) error {
	return v.store.Update(storeKey, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNoSession
		}

		sess, err := v.decrypt(current)
		if err != nil {
			return nil, err
		}

		sess.SessionToken = token
		return v.encrypt(sess)
	})
}

// Invalidate implements Vault.Invalidate.
func (v *vault) Invalidate() error {
	err := v.store.Update(storeKey, func(current []byte) ([]byte, error) {
		if current == nil {
			// Nothing to invalidate.
			return nil, nil
		}

		sess, err := v.decrypt(current)
		if err != nil {
			return nil, err
		}

		if sess.Invalid {
			return current, nil
		}

		sess.Invalid = true
		return v.encrypt(sess)
	})
	if err != nil {
		return err
	}

	v.logger.Warn("session invalidated, re-authentication required")
	return nil
}

// Clear implements Vault.Clear.
func (v *vault) Clear() error {
	if err := v.store.Delete(storeKey); err != nil {
		return fmt.Errorf("failed to clear vault: %w", err)
	}

	v.logger.Info("vault cleared")
	return nil
}

// encrypt serializes and seals a session. The nonce is prepended to the
// ciphertext.
func (v *vault) encrypt(sess *Session) ([]byte, error) {
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens a sealed blob and deserializes the session.
func (v *vault) decrypt(blob []byte) (*Session, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrCorruptVault
	}

	nonce := blob[:chacha20poly1305.NonceSizeX]
	ciphertext := blob[chacha20poly1305.NonceSizeX:]

	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}

	var sess Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}

	return &sess, nil
}

// loadOrCreateKey reads the key file, creating it with a fresh random
// key if absent.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path) // nolint:gosec
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s has wrong size %d", path, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return key, nil
}
