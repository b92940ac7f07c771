package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/tourbook-api/internal/config"
)

// ErrUnavailable is returned while the circuit breaker rejects sends.
var ErrUnavailable = errors.New("mail delivery unavailable")

// Message is a plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// New returns the sender selected by cfg, wrapped in a circuit breaker.
func New(cfg config.MailConfig, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}

	var next Sender
	if cfg.Enabled {
		next = NewSMTPSender(cfg)
		logger.Info("smtp mail delivery enabled", "host", cfg.Host, "port", cfg.Port)
	} else {
		next = NewLogSender(logger)
		logger.Info("mail disabled, messages will be logged")
	}

	return NewBreakerSender(next, DefaultBreakerConfig(), logger)
}
