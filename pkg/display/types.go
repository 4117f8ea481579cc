// Package display provides output formatting for reading progress.
//
// It supports multiple output formats (table, JSON, simple text) and
// handles progress, library, and session-status formatting.
package display

import (
	"io"
	"time"

	"github.com/1kuna/kindle-lock/pkg/kindle"
	"github.com/1kuna/kindle-lock/pkg/progress"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays output in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays output as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays output in simple text format.
	FormatSimple Format = "simple"
)

// ProgressReport is today's progress together with how fresh it is.
type ProgressReport struct {
	progress.TodayProgress

	// SyncedAt is when the underlying data was last fetched. Zero
	// means never synced.
	SyncedAt time.Time `json:"syncedAt,omitempty"`

	// Stale marks a report served from cache after a failed refresh.
	Stale bool `json:"stale,omitempty"`
}

// SessionStatus summarizes the stored session without exposing any
// credential values.
type SessionStatus struct {
	Authenticated   bool      `json:"authenticated"`
	HasDeviceToken  bool      `json:"hasDeviceToken"`
	HasSessionToken bool      `json:"hasSessionToken"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// Formatter formats and displays progress output.
type Formatter interface {
	// FormatProgress formats today's progress report.
	FormatProgress(w io.Writer, report ProgressReport) error

	// FormatBooks formats a library listing.
	FormatBooks(w io.Writer, books []kindle.Book) error

	// FormatSession formats session status.
	FormatSession(w io.Writer, status SessionStatus) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowTimestamps enables timestamp display.
	// Default: true.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
