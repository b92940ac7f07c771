package mailer

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
)

func TestBuildMessage(t *testing.T) {
	msg := Message{
		To:      "jonas@example.com",
		ToName:  "Jonas",
		Subject: "Hello",
		Text:    "line one\nline two",
	}

	out := buildMessage("noreply@example.com", "", msg)

	assert.True(t, strings.HasPrefix(out, "From: Tourbook <noreply@example.com>\r\n"))
	assert.Contains(t, out, "To: Jonas <jonas@example.com>\r\n")
	assert.Contains(t, out, "Subject: Hello\r\n")
	assert.Contains(t, out, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	assert.Contains(t, out, "line one\r\nline two\r\n")
}

func TestPasswordReset(t *testing.T) {
	msg := PasswordReset("a@b.io", "A", "http://localhost/api/v1/users/resetPassword/abc", 10*time.Minute)

	assert.Equal(t, "a@b.io", msg.To)
	assert.Equal(t, "Your password reset token (valid for 10 minutes)", msg.Subject)
	assert.Contains(t, msg.Text, "http://localhost/api/v1/users/resetPassword/abc")
	assert.Contains(t, msg.Text, "passwordConfirm")
}

func TestLogSender(t *testing.T) {
	l, buf := logger.NewTestLogger()
	sender := NewLogSender(l)

	err := sender.Send(context.Background(), Message{To: "a@b.io", Subject: "Hi", Text: "body"})

	require.NoError(t, err)
	entries := buf.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level())
	assert.Equal(t, "a@b.io", entries[0]["to"])
	assert.NotContains(t, entries[0], "text")
	assert.Equal(t, "DEBUG", entries[1].Level())
	assert.Equal(t, "body", entries[1]["text"])
}

func TestBreakerSender(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("passes through success", func(t *testing.T) {
		var calls int32
		next := SenderFunc(func(ctx context.Context, msg Message) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		s := NewBreakerSender(next, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

		require.NoError(t, s.Send(context.Background(), Message{To: "a@b.io"}))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Equal(t, gobreaker.StateClosed, s.State())
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		var calls int32
		next := SenderFunc(func(ctx context.Context, msg Message) error {
			atomic.AddInt32(&calls, 1)
			return boom
		})
		s := NewBreakerSender(next, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

		assert.ErrorIs(t, s.Send(context.Background(), Message{}), boom)
		assert.ErrorIs(t, s.Send(context.Background(), Message{}), boom)
		assert.Equal(t, gobreaker.StateOpen, s.State())

		err := s.Send(context.Background(), Message{})
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open circuit must not reach the sender")
	})

	t.Run("half-open probe closes the circuit", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		next := SenderFunc(func(ctx context.Context, msg Message) error {
			if fail.Load() {
				return boom
			}
			return nil
		})
		s := NewBreakerSender(next, BreakerConfig{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, nil)

		assert.Error(t, s.Send(context.Background(), Message{}))
		assert.Equal(t, gobreaker.StateOpen, s.State())

		fail.Store(false)
		time.Sleep(40 * time.Millisecond)

		require.NoError(t, s.Send(context.Background(), Message{}))
		assert.Equal(t, gobreaker.StateClosed, s.State())
	})
}

func TestNewSelectsLogSenderWhenDisabled(t *testing.T) {
	l, buf := logger.NewTestLogger()
	s := New(config.MailConfig{Enabled: false}, l)

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.io", Subject: "Hi"}))
	assert.Contains(t, buf.String(), "email logged instead of sent")
}

// fakeSMTPServer accepts one session without extensions and records the
// DATA payload.
func fakeSMTPServer(t *testing.T) (host string, port int, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP test")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch cmd {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 localhost")
			case "MAIL", "RCPT", "RSET", "NOOP":
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				out <- string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, out
}

func TestSMTPSender(t *testing.T) {
	t.Run("delivers message", func(t *testing.T) {
		host, port, data := fakeSMTPServer(t)
		s := NewSMTPSender(config.MailConfig{
			Host:    host,
			Port:    port,
			From:    "noreply@example.com",
			Timeout: 2 * time.Second,
		})

		err := s.Send(context.Background(), Message{To: "a@b.io", Subject: "Reset", Text: "hello"})
		require.NoError(t, err)

		select {
		case body := <-data:
			assert.Contains(t, body, "Subject: Reset")
			assert.Contains(t, body, "hello")
		case <-time.After(2 * time.Second):
			t.Fatal("server received no DATA")
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: port, From: "x@y.io", Timeout: time.Second})
		err = s.Send(context.Background(), Message{To: "a@b.io"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to SMTP server")
	})

	t.Run("empty recipient", func(t *testing.T) {
		s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: 25})
		assert.Error(t, s.Send(context.Background(), Message{}))
	})
}
