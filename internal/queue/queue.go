package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTypeDispatchPost = "dispatch:post"

type DispatchPostPayload struct {
	PostID string `json:"post_id"`
}

func EnqueueDispatch(asynqClient *asynq.Client, payload DispatchPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatchPost, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("dispatch task scheduled", "post_id", payload.PostID, "delay", delay)
	return nil
}
