package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/middleware"
	"github.com/noah-isme/feedesk-api/internal/service"
	"github.com/noah-isme/feedesk-api/internal/utils"
)

// SettingsHandler exposes the monthly fee setting.
type SettingsHandler struct {
	service service.SettingsService
	logger  zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service service.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register attaches settings routes to an authenticated router group.
func (h *SettingsHandler) Register(router fiber.Router) {
	router.Get("/monthly-fee", middleware.WithAuth(h.get, middleware.AuthOptions{RequireUser: true}))
	router.Post("/monthly-fee", middleware.WithAuth(h.set, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	fee, err := h.service.GetMonthlyFee(c.UserContext())
	if err != nil {
		if errors.Is(err, service.ErrFeeNotConfigured) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load monthly fee")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load monthly fee")
	}

	return utils.SendSuccess(c, "monthly fee retrieved", fee)
}

func (h *SettingsHandler) set(c *fiber.Ctx) error {
	var payload dto.MonthlyFeeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	fee, err := h.service.SetMonthlyFee(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "fee must be a positive amount", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update monthly fee")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update monthly fee")
	}

	return utils.SendSuccess(c, "Monthly fee updated for all students", fee)
}
