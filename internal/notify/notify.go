// Package notify provides report delivery channels beyond SNS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ppiankov/costspectre/internal/audit"
)

// WriterNotifier prints the report instead of delivering it. Used for dry runs.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Publish writes the subject, a blank line, and the body.
func (n *WriterNotifier) Publish(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.w, "Subject: %s\n\n%s", subject, body); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Multi publishes to every notifier and joins their errors.
// Delivery to one channel does not depend on the others.
type Multi []audit.Notifier

// Publish implements audit.Notifier.
func (m Multi) Publish(ctx context.Context, subject, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
