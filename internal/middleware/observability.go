package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/observability"
)

// observedPrefixes lists the admin-facing route groups that are measured.
var observedPrefixes = []string{
	"/api/admin-assistant",
	"/api/payments",
	"/api/settings",
	"/api/students",
}

// Observability records request metrics for the fee endpoints and writes one
// structured log line per observed request.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if !observed(c.Path()) {
			return err
		}

		elapsed := time.Since(start)
		route := c.Path()
		if c.Route() != nil && c.Route().Path != "" {
			route = c.Route().Path
		}
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.AdminRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.AdminLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())

		level := zerolog.InfoLevel
		if status >= fiber.StatusBadRequest {
			observability.AdminErrors().WithLabelValues(method, route, statusLabel).Inc()
			level = zerolog.WarnLevel
		}
		if status >= fiber.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}

		logger.WithLevel(level).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Bool("slow", elapsed > 500*time.Millisecond).
			Msg("request completed")

		return err
	}
}

func observed(path string) bool {
	for _, prefix := range observedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
