package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/middleware"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/service"
	"github.com/noah-isme/feedesk-api/internal/utils"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. protected authenticates the caller.
func (h *AuthHandler) Register(router fiber.Router, protected fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/logout", protected, h.logout)
	router.Post("/reset-password", protected, middleware.RequireRole(models.RoleAdmin), h.resetPassword)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	account, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		return h.fail(c, err, "failed to register account")
	}

	message := "Student registered"
	if account.Role == models.RoleAdmin {
		message = "Admin created"
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, account)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return h.fail(c, err, "failed to log in")
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), principalFromContext(c)); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to log out")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to log out")
	}

	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) resetPassword(c *fiber.Ctx) error {
	var payload dto.ResetPasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.ResetPassword(c.UserContext(), payload); err != nil {
		return h.fail(c, err, "failed to reset password")
	}

	return utils.SendSuccess(c, "password reset successful", nil)
}

func (h *AuthHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrAccountExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrSessionLimit):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
