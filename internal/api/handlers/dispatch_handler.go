package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Skyfz/skypoint-social/internal/service"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

type DispatchHandler struct {
	d *service.Dispatcher
	s service.PostService
}

func NewDispatchHandler(dispatcher *service.Dispatcher, posts service.PostService) *DispatchHandler {
	return &DispatchHandler{d: dispatcher, s: posts}
}

// Trigger is invoked by an external scheduler at regular intervals. It scans
// for due pending posts and attempts each one, reporting per-post outcomes.
func (h *DispatchHandler) Trigger(c *fiber.Ctx) error {
	outcomes, err := h.d.RunDue(c.Context())
	if err != nil {
		return serviceError(c, err)
	}

	if outcomes == nil {
		outcomes = []transfer.DispatchOutcome{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Dispatch run complete",
		"results": outcomes,
	})
}

// Complete finalizes a record the workflow-automation system published on our
// behalf, based on which platform URLs it reports back.
func (h *DispatchHandler) Complete(c *fiber.Ctx) error {
	var payload transfer.CompletionPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	post, err := h.s.Complete(c.Context(), &payload)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}
