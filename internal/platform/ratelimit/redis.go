package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix  = "tourbook:ratelimit:"
	defaultTimeout = 500 * time.Millisecond
	connectTimeout = 5 * time.Second
)

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if logger != nil {
		logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	}
	return rdb, nil
}

// RedisCounter implements httprate.LimitCounter with one Redis key per
// client and window. Keys expire after two windows, once the sliding
// estimate no longer reads them.
type RedisCounter struct {
	client       redis.UniversalClient
	prefix       string
	timeout      time.Duration
	windowLength time.Duration
}

var _ httprate.LimitCounter = (*RedisCounter)(nil)

// NewRedisCounter creates a counter. An empty prefix uses the default.
func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisCounter{
		client:       client,
		prefix:       prefix,
		timeout:      defaultTimeout,
		windowLength: time.Minute,
	}
}

// Config is called by httprate with the limiter's settings.
func (c *RedisCounter) Config(requestLimit int, windowLength time.Duration) {
	c.windowLength = windowLength
}

// Increment adds one request to key in currentWindow.
func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

// IncrementBy adds amount requests to key in currentWindow.
func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	k := c.key(key, currentWindow)
	pipe := c.client.TxPipeline()
	pipe.IncrBy(ctx, k, int64(amount))
	pipe.Expire(ctx, k, 2*c.windowLength)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment rate counter: %w", err)
	}
	return nil
}

// Get returns the counts of key in the current and previous windows.
func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	values, err := c.client.MGet(ctx, c.key(key, currentWindow), c.key(key, previousWindow)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("failed to read rate counters: %w", err)
	}
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("failed to read rate counters: got %d values", len(values))
	}

	curr, err := parseCount(values[0])
	if err != nil {
		return 0, 0, err
	}
	prev, err := parseCount(values[1])
	if err != nil {
		return 0, 0, err
	}
	return curr, prev, nil
}

func (c *RedisCounter) key(key string, window time.Time) string {
	return c.prefix + strconv.FormatInt(window.Unix(), 10) + ":" + key
}

// parseCount reads an MGET value. A missing key is zero.
func parseCount(v any) (int, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid rate counter value %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected rate counter type %T", v)
	}
}
