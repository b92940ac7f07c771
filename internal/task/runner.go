package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// TaskTimeout bounds each task's execution
	TaskTimeout time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
		TaskTimeout: time.Minute,
	}
}

// TaskRunner owns a TaskQueue and the WorkerPool that drains it.
type TaskRunner struct {
	queue     *TaskQueue
	pool      *WorkerPool
	logger    *slog.Logger
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewTaskRunner creates a new TaskRunner. Call Start before submitting.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{
		WorkerCount: config.WorkerCount,
		TaskTimeout: config.TaskTimeout,
	}, logger)

	return &TaskRunner{queue: queue, pool: pool, logger: logger}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// SetObserver registers a callback run after every task.
func (r *TaskRunner) SetObserver(observer func(taskType string, err error, elapsed time.Duration)) {
	r.pool.SetObserver(observer)
}

// Submit adds a new task to the queue. It never blocks: a full queue
// returns ErrQueueFull.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to submit task %s: %w", task.Type(), err)
	}
	return nil
}

// Start begins processing tasks
func (r *TaskRunner) Start() {
	r.startOnce.Do(r.pool.Start)
}

// Stop refuses new tasks and lets the workers finish the queued ones until
// ctx expires, after which running tasks are cancelled.
func (r *TaskRunner) Stop(ctx context.Context) {
	r.stopOnce.Do(func() {
		r.queue.Close()
		r.pool.Drain(ctx)
	})
}

// Ensure TaskRunner implements Submitter
var _ Submitter = (*TaskRunner)(nil)
