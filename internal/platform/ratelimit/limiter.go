package ratelimit

import (
	"net/http"

	"github.com/go-chi/httprate"

	"github.com/phrazzld/tourbook-api/internal/config"
)

// Middleware returns the per-IP limiter described by cfg. A nil counter
// keeps counts in memory. onLimit writes the 429 response.
// When cfg disables limiting the middleware is a no-op.
func Middleware(cfg config.RateLimitConfig, counter httprate.LimitCounter, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	opts := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByIP),
	}
	if counter != nil {
		opts = append(opts, httprate.WithLimitCounter(counter))
	}
	if onLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(onLimit))
	}

	return httprate.Limit(cfg.Requests, cfg.Window, opts...)
}
