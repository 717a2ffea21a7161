package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by NATSNotifier.
type Publisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Envelope is the JSON payload published to NATS.
type Envelope struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// NATSNotifier publishes reports as JSON envelopes on a NATS subject.
type NATSNotifier struct {
	conn    Publisher
	subject string
	closer  func()
	now     func() time.Time
}

// NewNATSNotifier connects to url and publishes on subject.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if subject == "" {
		return nil, errors.New("nats: subject is required")
	}
	conn, err := nats.Connect(url, nats.Name("costspectre"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	n := NewNATSNotifierWithConn(conn, subject)
	n.closer = func() {
		_ = conn.Drain()
		conn.Close()
	}
	return n, nil
}

// NewNATSNotifierWithConn wraps an existing connection.
func NewNATSNotifierWithConn(conn Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, now: time.Now}
}

// Publish sends the report and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Publish(ctx context.Context, subject, body string) error {
	data, err := json.Marshal(Envelope{Subject: subject, Body: body, SentAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode NATS message: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("nats publish to %s: %w", n.subject, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains the connection if this notifier owns it.
func (n *NATSNotifier) Close() {
	if n.closer != nil {
		n.closer()
	}
}
