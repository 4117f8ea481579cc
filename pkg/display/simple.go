package display

import (
	"fmt"
	"io"

	"github.com/1kuna/kindle-lock/pkg/kindle"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatProgress implements Formatter.FormatProgress.
func (f *simpleFormatter) FormatProgress(w io.Writer, report ProgressReport) error {
	goal := "goal not met"
	if report.GoalMet {
		goal = "goal met"
	}

	line := fmt.Sprintf("%s: %s of %s read | %s remaining | %s",
		report.Date,
		formatPercent(report.PercentageRead),
		formatPercent(report.PercentageGoal),
		formatPercent(report.PercentageRemaining),
		goal)

	if f.config.ShowTimestamps && !report.SyncedAt.IsZero() {
		line += " | synced " + report.SyncedAt.Format(timestampLayout)
		if report.Stale {
			line += " (stale)"
		}
	}

	_, err := fmt.Fprintln(w, line)
	return err
}

// FormatBooks implements Formatter.FormatBooks.
func (f *simpleFormatter) FormatBooks(w io.Writer, books []kindle.Book) error {
	for _, book := range books {
		if _, err := fmt.Fprintf(w, "%s: %s (%s)\n",
			book.ASIN, book.Title, formatAuthors(book.Authors)); err != nil {
			return err
		}
	}
	return nil
}

// FormatSession implements Formatter.FormatSession.
func (f *simpleFormatter) FormatSession(w io.Writer, status SessionStatus) error {
	_, err := fmt.Fprintf(w, "authenticated: %s | device token: %s | session token: %s\n",
		yesNo(status.Authenticated),
		yesNo(status.HasDeviceToken),
		yesNo(status.HasSessionToken))
	return err
}
