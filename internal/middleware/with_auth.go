package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/feedesk-api/internal/utils"
)

// Roles accepted by AuthOptions.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = "admin"
	AuthRoleStudent = "student"
)

// AuthOptions configures WithAuth. A specific Role always requires a caller;
// AuthRoleAny admits anonymous callers unless RequireUser is set.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards a single handler by caller presence and role.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRole(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if role != AuthRoleAny && callerRole(c) != role {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}
