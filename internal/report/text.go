package report

import (
	"fmt"
	"io"
)

// TextReporter writes the rendered report message.
type TextReporter struct {
	Writer io.Writer
}

// Generate writes the message, or a one-line notice when nothing was found.
func (r *TextReporter) Generate(data Data) error {
	if data.Message == "" {
		if _, err := fmt.Fprintln(r.Writer, "No underutilized resources found"); err != nil {
			return fmt.Errorf("write text report: %w", err)
		}
	} else if _, err := io.WriteString(r.Writer, data.Message); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	if len(data.Summary.Errors) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(r.Writer, "\nErrors (%d):\n", len(data.Summary.Errors)); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	for _, e := range data.Summary.Errors {
		if _, err := fmt.Fprintf(r.Writer, " - %s\n", e); err != nil {
			return fmt.Errorf("write text report: %w", err)
		}
	}
	return nil
}
