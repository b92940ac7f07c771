// Package logger configures the process-wide slog JSON logger and carries
// request-scoped loggers, enriched with a trace ID, through a context.
package logger
