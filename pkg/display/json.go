package display

import (
	"encoding/json"
	"io"

	"github.com/1kuna/kindle-lock/pkg/kindle"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encoder(w io.Writer) *json.Encoder {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder
}

// FormatProgress implements Formatter.FormatProgress.
func (f *jsonFormatter) FormatProgress(w io.Writer, report ProgressReport) error {
	return f.encoder(w).Encode(report)
}

// FormatBooks implements Formatter.FormatBooks.
func (f *jsonFormatter) FormatBooks(w io.Writer, books []kindle.Book) error {
	return f.encoder(w).Encode(books)
}

// FormatSession implements Formatter.FormatSession.
func (f *jsonFormatter) FormatSession(w io.Writer, status SessionStatus) error {
	return f.encoder(w).Encode(status)
}
