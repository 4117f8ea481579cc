// Package kindle implements the client side of the cloud reader's
// undocumented web API: catalog listing, per-book reading positions,
// book bounds metadata, and the device-session-token handshake.
//
// The upstream surface is unversioned and was not designed for
// third-party use. Field absence is treated as "unavailable", not as a
// malformed response, throughout; only bodies that fail to decode at
// all are decode errors.
package kindle

import (
	"context"
	"time"

	"github.com/1kuna/kindle-lock/pkg/vault"
)

// Book is a normalized catalog entry.
type Book struct {
	// ASIN is the stable catalog identifier (primary key).
	ASIN string `json:"asin"`

	// Title is the book title.
	Title string `json:"title"`

	// Authors lists the book's authors.
	Authors []string `json:"authors,omitempty"`

	// CoverURL is the cover image URL, if known.
	CoverURL string `json:"cover_url,omitempty"`
}

// Position is the current reading cursor for a book.
//
// The cursor is an opaque integer that is monotonic within a book; it is
// not a page number. It only becomes comparable across books after
// conversion to a percentage via the book's bounds.
type Position struct {
	// ASIN identifies the book.
	ASIN string

	// Value is the current cursor. Meaningless when HasPosition is false.
	Value int

	// HasPosition is false when upstream reported no reading position
	// for the book (never opened, or position withheld). Not an error.
	HasPosition bool

	// MetadataURL is the bounds-metadata fetch URL embedded in the
	// position response. Empty when upstream omitted it.
	MetadataURL string
}

// Bounds are a book's immutable start/end cursors. Cacheable
// indefinitely once known for a given ASIN.
type Bounds struct {
	Start int `json:"start_position"`
	End   int `json:"end_position"`
}

// Percentage converts a cursor into percent-of-book-read, clamped to
// [0, 100]. Degenerate bounds (end <= start) yield 0 rather than a
// division failure.
func (b Bounds) Percentage(position int) float64 {
	if b.End <= b.Start {
		return 0
	}

	pct := float64(position-b.Start) / float64(b.End-b.Start) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Client issues authenticated requests against the upstream API.
//
// The catalog operations (FetchRecent, FetchAll) and the per-book
// operations (FetchPosition, FetchBounds, EnsureSessionToken) share
// session handling and response classification.
type Client interface {
	// FetchRecent returns a bounded window of recently read books,
	// most-recently-read first. Single request; optimized for latency.
	FetchRecent(ctx context.Context) ([]Book, error)

	// FetchAll returns the whole catalog, following pagination tokens
	// until upstream stops returning one or the hard page cap is hit
	// (reaching the cap is success, logged). A decode failure on any
	// page aborts the whole operation with no partial results.
	FetchAll(ctx context.Context) ([]Book, error)

	// FetchPosition returns the current reading cursor for a book.
	// A missing position field yields HasPosition == false, not an error.
	FetchPosition(ctx context.Context, asin string) (Position, error)

	// FetchBounds retrieves and unwraps the JSONP bounds metadata from
	// the URL embedded in a position response.
	FetchBounds(ctx context.Context, metadataURL string) (Bounds, error)

	// EnsureSessionToken returns the derived device-session token,
	// performing the token-exchange handshake (and persisting the
	// result) if none is cached. Fails with ErrMissingDeviceToken when
	// no device-registration token is available.
	EnsureSessionToken(ctx context.Context) (string, error)
}

// SessionSource provides the credential bundle for requests and receives
// session state transitions. Satisfied by vault.Vault.
type SessionSource interface {
	// Load returns the stored session.
	Load() (*vault.Session, error)

	// SetSessionToken persists the derived device-session token.
	SetSessionToken(token string) error

	// Invalidate marks the session invalid after an authorization
	// rejection.
	Invalidate() error
}

// Config contains client configuration.
type Config struct {
	// BaseURL is the upstream origin (scheme + host).
	BaseURL string

	// RecentPageSize is the window size for FetchRecent.
	RecentPageSize int

	// MaxLibraryPages is the hard pagination cap for FetchAll.
	MaxLibraryPages int

	// RequestTimeout bounds each individual request.
	RequestTimeout time.Duration

	// HandshakeTimeout bounds the device-session-token exchange,
	// separately from position fetches.
	HandshakeTimeout time.Duration

	// UserAgent is sent on every request.
	UserAgent string
}
