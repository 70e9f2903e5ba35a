package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/service"
)

// AssistantHandler serves the admin assistant chat endpoint. Replies use the
// {ok, message, intent} shape rather than the common envelope.
type AssistantHandler struct {
	service service.AssistantService
	logger  zerolog.Logger
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(service service.AssistantService, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register attaches the chat route to an authenticated router group.
func (h *AssistantHandler) Register(router fiber.Router) {
	router.Post("/chat", h.adminOnly, h.chat)
}

func (h *AssistantHandler) adminOnly(c *fiber.Ctx) error {
	if userRoleFromContext(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(dto.AssistantChatResponse{OK: false, Message: "Forbidden: Admin only"})
	}
	return c.Next()
}

func (h *AssistantHandler) chat(c *fiber.Ctx) error {
	var payload dto.AssistantChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.AssistantChatResponse{OK: false, Message: "Prompt is required"})
	}

	response, err := h.service.Chat(c.UserContext(), userIDFromContext(c), payload)
	switch {
	case err == nil:
		return c.JSON(response)
	case errors.Is(err, service.ErrPromptRequired):
		return c.Status(fiber.StatusBadRequest).JSON(response)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assistant request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(response)
	}
}
