package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/feedesk-api/internal/config"
	"github.com/noah-isme/feedesk-api/internal/handler"
	"github.com/noah-isme/feedesk-api/internal/middleware"
	"github.com/noah-isme/feedesk-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	StudentHandler   *handler.StudentHandler
	PaymentHandler   *handler.PaymentHandler
	SettingsHandler  *handler.SettingsHandler
	AssistantHandler *handler.AssistantHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	health := handler.HealthCheck(cfg)
	app.Get("/health", health)
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", health)

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api")

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), jwtMiddleware)
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}

	if deps.PaymentHandler != nil {
		deps.PaymentHandler.Register(api.Group("/payments", jwtMiddleware))
	}

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(api.Group("/settings", jwtMiddleware))
	}

	// Assistant prompts are throttled per admin
	if deps.AssistantHandler != nil {
		assistant := api.Group("/admin-assistant", jwtMiddleware, middleware.RateLimit("assistant", cfg.AssistantRate, time.Minute))
		deps.AssistantHandler.Register(assistant)
	}
}
