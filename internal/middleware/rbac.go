package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/feedesk-api/internal/utils"
)

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		if !slices.Contains(allowed, callerRole(c)) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return c.Next()
	}
}

// callerRole reads the role stored by JWTProtected.
func callerRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return normalizeRole(role)
}

func normalizeRole(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
