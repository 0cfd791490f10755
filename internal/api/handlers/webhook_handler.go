package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Skyfz/skypoint-social/internal/service"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

type WebhookHandler struct {
	s service.PostService
}

func NewWebhookHandler(posts service.PostService) *WebhookHandler {
	return &WebhookHandler{s: posts}
}

// ContentWebhook accepts a single externally-authored post from the content
// source and stores it, defaulting to pending.
func (h *WebhookHandler) ContentWebhook(c *fiber.Ctx) error {
	var payload transfer.WebhookPost
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	post, err := h.s.CreateFromWebhook(c.Context(), &payload)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}
