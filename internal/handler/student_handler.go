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

// StudentHandler wires the student roster endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to an authenticated router group.
func (h *StudentHandler) Register(router fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("", middleware.WithAuth(h.list, admin))
	router.Get("/me", middleware.WithAuth(h.me, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{RequireUser: true}))
	router.Delete("/:id", middleware.WithAuth(h.delete, admin))
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	paid := 0
	for _, student := range students {
		if student.FeesStatus == dto.FeesStatusPaid {
			paid++
		}
	}

	return utils.OK(c, students, "students retrieved", fiber.Map{"total": len(students), "paid": paid, "unpaid": len(students) - paid})
}

func (h *StudentHandler) me(c *fiber.Ctx) error {
	return h.respondWithStudent(c, userIDFromContext(c))
}

// get lets admins read any student and students read only themselves.
func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if userRoleFromContext(c) != models.RoleAdmin && userIDFromContext(c) != id {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	return h.respondWithStudent(c, id)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", id).Msg("failed to delete student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete student")
	}

	return utils.SendSuccess(c, "Student deleted successfully", nil)
}

func (h *StudentHandler) respondWithStudent(c *fiber.Ctx, id uint) error {
	student, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", id).Msg("failed to load student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}
