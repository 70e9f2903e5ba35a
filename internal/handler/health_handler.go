package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/config"
	"github.com/noah-isme/feedesk-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Service         string    `json:"service"`
	Environment     string    `json:"environment"`
	AcademicSession string    `json:"academic_session"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		payload := HealthResponse{
			Status:          "ok",
			Timestamp:       now,
			Service:         cfg.AppName,
			Environment:     cfg.AppEnv,
			AcademicSession: academic.SessionLabel(academic.Year(now)),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
