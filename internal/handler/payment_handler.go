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

// PaymentHandler wires fee payment endpoints.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches payment routes to an authenticated router group.
func (h *PaymentHandler) Register(router fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("/my", middleware.WithAuth(h.my, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/all", middleware.WithAuth(h.all, admin))
	router.Post("/mark-paid", middleware.WithAuth(h.markPaid, admin))
	router.Get("/revenue", middleware.WithAuth(h.revenue, admin))
}

func (h *PaymentHandler) my(c *fiber.Ctx) error {
	payments, err := h.service.MyPayments(c.UserContext(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list own payments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list payments")
	}

	return utils.SendSuccess(c, "payments retrieved", payments)
}

func (h *PaymentHandler) all(c *fiber.Ctx) error {
	payments, err := h.service.ListAll(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list payments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list payments")
	}

	return utils.OK(c, payments, "payments retrieved", fiber.Map{"total": len(payments)})
}

func (h *PaymentHandler) markPaid(c *fiber.Ctx) error {
	var payload dto.MarkPaidRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	payment, err := h.service.MarkPaid(c.UserContext(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusBadRequest, "student_id and month required", validationDetails(err))
		case errors.Is(err, service.ErrInvalidMonth):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMonthAlreadyPaid):
			return utils.SendError(c, fiber.StatusConflict, "This month already paid")
		case errors.Is(err, service.ErrFeeNotConfigured):
			requestLogger(h.logger, c).Error().Err(err).Msg("mark paid without configured fee")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", payload.StudentID).Msg("failed to mark payment")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to mark payment")
		}
	}

	return utils.SendSuccess(c, "Payment marked successfully", payment)
}

func (h *PaymentHandler) revenue(c *fiber.Ctx) error {
	revenue, err := h.service.Revenue(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute revenue")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute revenue")
	}

	return utils.SendSuccess(c, "revenue retrieved", revenue)
}
