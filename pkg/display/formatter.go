package display

import (
	"fmt"
	"io"
	"strings"
)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	// Set defaults.
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// formatPercent formats a percentage value for display.
func formatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// formatAuthors joins an author list for display.
func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "-"
	}
	return strings.Join(authors, ", ")
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
