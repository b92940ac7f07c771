package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded in-memory queue that coalesces Keyed tasks.
type TaskQueue struct {
	mu      sync.Mutex
	tasks   chan Task
	pending map[string]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewTaskQueue creates a queue buffering up to size tasks.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		tasks:   make(chan Task, size),
		pending: make(map[string]struct{}),
		logger:  logger,
	}
}

// Enqueue buffers task. A Keyed task whose key is already waiting is
// dropped and Enqueue reports success.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	key := taskKey(task)
	if key != "" {
		if _, waiting := q.pending[key]; waiting {
			q.logger.Debug("task coalesced", "task_type", task.Type(), "key", key)
			return nil
		}
	}

	select {
	case q.tasks <- task:
		if key != "" {
			q.pending[key] = struct{}{}
		}
		q.logger.Debug("task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(q.tasks))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.tasks))
	}
}

// Release forgets the key of a task a worker has dequeued.
func (q *TaskQueue) Release(task Task) {
	key := taskKey(task)
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, key)
	q.mu.Unlock()
}

// Close refuses further tasks. Buffered tasks stay readable.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", "remaining", len(q.tasks))
}

// GetChannel returns the channel workers consume.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}

func taskKey(task Task) string {
	if k, ok := task.(Keyed); ok {
		return k.Key()
	}
	return ""
}

var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)
