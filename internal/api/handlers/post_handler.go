package handlers

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/queue"
	"github.com/Skyfz/skypoint-social/internal/service"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	pc, files, err := parsePostForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	post, err := h.s.Create(c.Context(), c.FormValue("secret_key"), pc, files)
	if err != nil {
		return serviceError(c, err)
	}

	h.enqueueDispatch(post)

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	skip := c.QueryInt("skip", 0)
	status := c.Query("status")

	posts, counts, err := h.s.List(c.Context(), limit, skip, status)
	if err != nil {
		return serviceError(c, err)
	}

	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts":  posts,
		"counts": counts,
	})
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	pc, files, err := parsePostForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	id := c.FormValue("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post id is required",
		})
	}

	var deleted []transfer.DeletedMedia
	if raw := c.FormValue("deleted_media"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &deleted); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid deleted_media format",
			})
		}
	}

	post, err := h.s.Update(c.Context(), id, c.FormValue("secret_key"), pc, files, deleted)
	if err != nil {
		return serviceError(c, err)
	}

	h.enqueueDispatch(post)

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	var req transfer.DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post id is required",
		})
	}

	if err := h.s.Delete(c.Context(), req.ID, req.SecretKey); err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post deleted",
	})
}

// parsePostForm pulls the JSON-encoded post blob and media file parts out of
// a multipart create/update request. A request without a "post" field yields
// a nil PostCreation, which update treats as "no field changes".
func parsePostForm(c *fiber.Ctx) (*transfer.PostCreation, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}

	var pc *transfer.PostCreation
	if raw := c.FormValue("post"); raw != "" {
		pc = &transfer.PostCreation{}
		if err := json.Unmarshal([]byte(raw), pc); err != nil {
			return nil, nil, err
		}
	}

	return pc, form.File["media"], nil
}

// enqueueDispatch schedules a delayed dispatch task for pending posts when
// the task queue is wired. The claim step keeps the queue, the cron scan and
// the external trigger from double-publishing.
func (h *PostHandler) enqueueDispatch(post *models.Post) {
	if h.AsynqClient == nil || post == nil || post.Status != models.StatusPending {
		return
	}

	delay := time.Until(post.ScheduledDate)
	if delay < 0 {
		delay = 0
	}

	err := queue.EnqueueDispatch(h.AsynqClient, queue.DispatchPostPayload{PostID: post.ID}, delay)
	if err != nil {
		slog.Error("failed to enqueue dispatch task", "post_id", post.ID, "error", err)
	}
}
