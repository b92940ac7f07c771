package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/events"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
)

// ReviewEventHandler turns review.changed events into reconcile tasks.
type ReviewEventHandler struct {
	factory *TourRatingTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewReviewEventHandler creates a handler that submits the factory's tasks
// to runner.
func NewReviewEventHandler(factory *TourRatingTaskFactory, runner Submitter, logger *slog.Logger) *ReviewEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "review_event_handler"),
	}
}

// HandleEvent processes review.changed events and ignores all others.
func (h *ReviewEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	if event.Type != events.ReviewChanged {
		log.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.ReviewChangedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.TourID == uuid.Nil {
		return fmt.Errorf("event %s carries no tour id", event.ID)
	}

	task := h.factory.CreateTask(payload.TourID)
	if err := h.runner.Submit(ctx, task); err != nil {
		log.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"tour_id", payload.TourID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Debug("reconcile task submitted",
		"task_id", task.ID(),
		"tour_id", payload.TourID,
		"action", payload.Action,
		"event_id", event.ID)
	return nil
}

// Ensure ReviewEventHandler implements events.EventHandler
var _ events.EventHandler = (*ReviewEventHandler)(nil)
