// Package task runs background work on an in-memory queue drained by a
// fixed worker pool. Tasks must be idempotent: nothing is persisted, so
// work queued at shutdown is dropped.
package task
