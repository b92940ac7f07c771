// Package ratelimit builds the global per-IP request limiter on top of
// go-chi/httprate. Counters live in process memory by default; RedisCounter
// shares them between instances.
package ratelimit
