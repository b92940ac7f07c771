package mailer

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tourbook-api/internal/platform/logger"
)

// LogSender writes messages to the log instead of delivering them.
// The body is logged at debug level only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(l *slog.Logger) *LogSender {
	if l == nil {
		l = slog.Default()
	}
	return &LogSender{logger: l.With("component", "log_mailer")}
}

// Send implements Sender. It never fails.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("email logged instead of sent",
		"to", msg.To,
		"subject", msg.Subject)
	log.Debug("email body", "to", msg.To, "text", msg.Text)
	return nil
}
