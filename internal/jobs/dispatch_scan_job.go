package job

import (
	"context"
	"log/slog"

	"github.com/Skyfz/skypoint-social/internal/service"
)

// DispatchScanJob is the in-process counterpart of the external dispatch
// trigger, run on a cron schedule. Both paths go through the same claim step,
// so running them side by side is safe.
type DispatchScanJob struct {
	d *service.Dispatcher
}

func NewDispatchScanJob(dispatcher *service.Dispatcher) *DispatchScanJob {
	return &DispatchScanJob{d: dispatcher}
}

func (j *DispatchScanJob) Run() {
	ctx := context.Background()

	outcomes, err := j.d.RunDue(ctx)
	if err != nil {
		slog.Error("dispatch scan failed", "error", err)
		return
	}

	for _, outcome := range outcomes {
		if outcome.Error != "" {
			slog.Error("dispatch finished with errors", "post_id", outcome.PostID, "status", outcome.Status, "error", outcome.Error)
			continue
		}
		slog.Info("dispatch finished", "post_id", outcome.PostID, "status", outcome.Status)
	}
}
