package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// LogEntry is one decoded JSON log line.
type LogEntry map[string]any

// Level returns the entry's level, such as "INFO".
func (e LogEntry) Level() string {
	s, _ := e[slog.LevelKey].(string)
	return s
}

// Message returns the entry's msg attribute.
func (e LogEntry) Message() string {
	s, _ := e[slog.MessageKey].(string)
	return s
}

// CaptureBuffer collects the output of a test logger. It is safe for use by
// handlers that log from several goroutines.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *CaptureBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *CaptureBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every JSON line written so far. Non-JSON lines are skipped.
func (b *CaptureBuffer) Entries() []LogEntry {
	var entries []LogEntry
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry LogEntry
		if json.Unmarshal([]byte(line), &entry) == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Find returns the first entry whose message is msg.
func (b *CaptureBuffer) Find(msg string) (LogEntry, bool) {
	for _, e := range b.Entries() {
		if e.Message() == msg {
			return e, true
		}
	}
	return nil, false
}

// NewTestLogger returns a debug-level JSON logger and the buffer it writes to.
func NewTestLogger() (*slog.Logger, *CaptureBuffer) {
	buf := &CaptureBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
