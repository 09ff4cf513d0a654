// Package notify delivers pipeline failure reports to site operators.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

// Config enables notification backends. The log backend is always on.
type Config struct {
	Web3Forms Web3FormsConfig `yaml:"web3forms"`
	NATS      NATSConfig      `yaml:"nats"`
}

func DefaultConfig() Config {
	return Config{
		Web3Forms: Web3FormsConfig{Endpoint: DefaultWeb3FormsEndpoint},
		NATS:      NATSConfig{Subject: DefaultNATSSubject},
	}
}

// New builds the notifier for cfg. The returned close function releases
// backend connections.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (interfaces.Notifier, func() error, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.With(logging.Field{Key: "component", Value: "notify"})

	notifiers := []interfaces.Notifier{NewLog(logger)}
	closers := []func() error{}

	if cfg.Web3Forms.AccessKey != "" {
		w, err := NewWeb3Forms(cfg.Web3Forms, wc, logger)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, w)
	}
	if cfg.NATS.URL != "" {
		n, err := NewNATS(cfg.NATS, logger)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, n)
		closers = append(closers, n.Close)
	}

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	return NewMulti(notifiers...), closeAll, nil
}

// Multi fans a notification out to every backend. Every backend is tried;
// their errors are joined.
type Multi struct {
	notifiers []interfaces.Notifier
}

func NewMulti(notifiers ...interfaces.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, nt := range m.notifiers {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", nt, err))
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to the structured log.
type Log struct {
	logger logging.Logger
}

func NewLog(logger logging.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, n model.Notification) error {
	l.logger.Warn("page build failed",
		logging.Field{Key: "site", Value: n.SiteSlug},
		logging.Field{Key: "file", Value: n.File},
		logging.Field{Key: "repo_link", Value: n.RepoLink},
		logging.Field{Key: "error", Value: n.Error})
	return nil
}
