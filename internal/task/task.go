package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskTypeTourRatingReconcile re-derives a tour's rating from its reviews.
const TaskTypeTourRatingReconcile = "tour_rating_reconcile"

// Task is one unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

// Keyed tasks are coalesced: while a task with the same key waits in the
// queue, enqueueing another one is a no-op. Work whose result depends only
// on current state, like a rating recompute, implements it.
type Keyed interface {
	Key() string
}

// TaskQueueReader is the worker side of a queue. Workers call Release when
// they take a task off the channel so its key can be queued again.
type TaskQueueReader interface {
	GetChannel() <-chan Task
	Release(task Task)
}

// TaskQueueWriter is the producer side of a queue.
type TaskQueueWriter interface {
	// Enqueue never blocks. It fails with ErrQueueFull or ErrQueueClosed.
	Enqueue(task Task) error
	Close()
}

// Submitter accepts tasks for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}
