package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Skyfz/skypoint-social/internal/service"
)

type Worker struct {
	d *service.Dispatcher
}

func NewWorker(dispatcher *service.Dispatcher) *Worker {
	return &Worker{d: dispatcher}
}

// HandleDispatchPostTask attempts one scheduled post. The dispatcher claims
// the record first, so a post already handled by the trigger or the cron
// scan is skipped rather than published twice.
func (w *Worker) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	outcome, err := w.d.DispatchByID(ctx, payload.PostID)
	if err != nil {
		slog.Error("dispatch task failed", "post_id", payload.PostID, "error", err)
		return err
	}
	if outcome == nil {
		slog.Info("dispatch task skipped, post no longer pending", "post_id", payload.PostID)
		return nil
	}

	slog.Info("dispatch task done", "post_id", outcome.PostID, "status", outcome.Status)
	return nil
}
