package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/1kuna/kindle-lock/pkg/kindle"
)

const timestampLayout = "2006-01-02 15:04:05"

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatProgress implements Formatter.FormatProgress.
func (f *tableFormatter) FormatProgress(w io.Writer, report ProgressReport) error {
	if err := writeHeader(w, "Reading Progress", f.config.Compact); err != nil {
		return err
	}

	goalStatus := "not yet"
	if report.GoalMet {
		goalStatus = "met"
		if report.GoalMetAt != nil {
			goalStatus = "met at " + report.GoalMetAt.Format("15:04")
		}
	}

	rows := [][]string{
		{"Date", report.Date},
		{"Read Today", formatPercent(report.PercentageRead)},
		{"Daily Goal", formatPercent(report.PercentageGoal)},
		{"Remaining", formatPercent(report.PercentageRemaining)},
		{"Goal", goalStatus},
	}

	if f.config.ShowTimestamps && !report.SyncedAt.IsZero() {
		synced := report.SyncedAt.Format(timestampLayout)
		if report.Stale {
			synced += " (stale)"
		}
		rows = append(rows, []string{"Last Synced", synced})
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatBooks implements Formatter.FormatBooks.
func (f *tableFormatter) FormatBooks(w io.Writer, books []kindle.Book) error {
	if err := writeHeader(w, "Library", f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(books))
	for i, book := range books {
		rows[i] = []string{book.ASIN, book.Title, formatAuthors(book.Authors)}
	}

	return f.writeTable(w, []string{"ASIN", "Title", "Authors"}, rows)
}

// FormatSession implements Formatter.FormatSession.
func (f *tableFormatter) FormatSession(w io.Writer, status SessionStatus) error {
	if err := writeHeader(w, "Session Status", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Authenticated", yesNo(status.Authenticated)},
		{"Device Token", yesNo(status.HasDeviceToken)},
		{"Session Token", yesNo(status.HasSessionToken)},
	}

	if f.config.ShowTimestamps && !status.CreatedAt.IsZero() {
		rows = append(rows, []string{"Logged In At", status.CreatedAt.Format(timestampLayout)})
	}

	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Write header.
	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	// Write separator.
	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	// Write rows.
	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	// Add spacing.
	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	for i, cell := range cells {
		if i > 0 {
			sep := "  "
			if f.config.Compact {
				sep = " "
			}
			if _, err := fmt.Fprint(w, sep); err != nil {
				return err
			}
		}

		format := fmt.Sprintf("%%-%ds", widths[i])
		if _, err := fmt.Fprintf(w, format, cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
