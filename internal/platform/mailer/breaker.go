package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/phrazzld/tourbook-api/internal/metrics"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
)

const breakerName = "mailer"

// BreakerConfig tunes the circuit breaker around a Sender.
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
	// Interval resets the closed-state counts. Zero never resets them.
	Interval time.Duration
}

// DefaultBreakerConfig opens after 5 consecutive failures and probes again
// after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         time.Minute,
		Interval:            5 * time.Minute,
	}
}

// BreakerSender guards a Sender with a gobreaker circuit breaker.
type BreakerSender struct {
	next   Sender
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger *slog.Logger
}

// NewBreakerSender wraps next.
func NewBreakerSender(next Sender, cfg BreakerConfig, l *slog.Logger) *BreakerSender {
	if l == nil {
		l = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	l = l.With("component", "mail_breaker")

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("mail circuit breaker state transition",
				"from", from.String(),
				"to", to.String())
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
		},
	})

	return &BreakerSender{next: next, cb: cb, logger: l}
}

// Send implements Sender. While the circuit is open it returns an error
// wrapping ErrUnavailable without calling the wrapped sender.
func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Send(ctx, msg)
	})

	switch {
	case err == nil:
		metrics.RecordEmail(metrics.ResultSent)
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordEmail(metrics.ResultRejected)
		logger.FromContextOrDefault(ctx, s.logger).Warn("email rejected by circuit breaker",
			"to", msg.To,
			"subject", msg.Subject)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		metrics.RecordEmail(metrics.ResultFailed)
		return err
	}
}

// State reports the breaker state.
func (s *BreakerSender) State() gobreaker.State {
	return s.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
