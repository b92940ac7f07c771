package shared

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/goccy/go-json"

	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/redact"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"  // 4xx
	StatusError   = "error" // 5xx
)

// Envelope is the body of every successful response.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse defines the standard error response structure. Error and
// Stack are only filled in development mode.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
	Code    int    `json:"-"` // Not serialized to JSON, used for logging
}

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel raises a 4xx response's log line from DEBUG to WARN.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to encode JSON response", "error", err)
	}
}

// RespondSuccess writes {status:"success", data:{<key>: data}}.
func RespondSuccess(w http.ResponseWriter, r *http.Request, status int, key string, data any) {
	RespondWithJSON(w, r, status, Envelope{
		Status: StatusSuccess,
		Data:   map[string]any{key: data},
	})
}

// RespondList writes {status:"success", results:n, data:{data:[...]}}.
func RespondList(w http.ResponseWriter, r *http.Request, items []any) {
	n := len(items)
	RespondWithJSON(w, r, http.StatusOK, Envelope{
		Status:  StatusSuccess,
		Results: &n,
		Data:    map[string]any{"data": items},
	})
}

// RespondNoContent writes 204 with no body.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// EnvelopeStatus returns "fail" for 4xx codes and "error" otherwise.
func EnvelopeStatus(code int) string {
	if code >= 400 && code < 500 {
		return StatusFail
	}
	return StatusError
}

// RespondWithError writes an error envelope with message. Use
// RespondWithErrorAndLog when an underlying error is available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, message, nil)
}

// RespondWithErrorAndLog writes an error envelope carrying userMessage and
// logs the redacted err.
//
// Log level strategy:
//   - 5xx errors: ERROR
//   - 429 Too Many Requests: WARN
//   - other 4xx errors: DEBUG, or WARN with WithElevatedLogLevel
//
// In development mode the envelope also carries err's full text and the
// goroutine stack.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	resp := ErrorResponse{
		Status:  EnvelopeStatus(status),
		Message: userMessage,
		Code:    status,
		TraceID: traceID,
	}
	if VerboseErrors(ctx) {
		if err != nil {
			resp.Error = err.Error()
		}
		resp.Stack = string(debug.Stack())
	}

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	var options responseOptions
	for _, opt := range opts {
		opt(&options)
	}

	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	case options.elevateLogLevel && status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	logger.FromContextOrDefault(ctx, slog.Default()).
		LogAttrs(ctx, level, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, resp)
}
