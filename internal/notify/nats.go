package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
)

const DefaultNATSSubject = "hyperdocs.pipeline.failures"

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATS publishes notifications as JSON on a subject so other services can
// react to build failures.
type NATS struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	logger  logging.Logger
}

func NewNATS(cfg NATSConfig, logger logging.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats notifier requires a url")
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("hyperdocs"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n := NewNATSWithPublisher(conn, cfg.Subject, logger)
	n.conn = conn
	n.logger.Info("NATS notifier connected",
		logging.Field{Key: "url", Value: cfg.URL},
		logging.Field{Key: "subject", Value: n.subject})
	return n, nil
}

// NewNATSWithPublisher wraps an existing publisher.
func NewNATSWithPublisher(pub Publisher, subject string, logger logging.Logger) *NATS {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &NATS{pub: pub, subject: subject, logger: logger}
}

func (n *NATS) Notify(ctx context.Context, note model.Notification) error {
	if note.At.IsZero() {
		note.At = time.Now().UTC()
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.pub.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("failed to flush notification: %w", err)
	}
	n.logger.Debug("published failure notification",
		logging.Field{Key: "subject", Value: n.subject},
		logging.Field{Key: "site", Value: note.SiteSlug})
	return nil
}

// Close drains the connection when the notifier owns one.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
