package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/session"
	"github.com/noah-isme/feedesk-api/internal/token"
	"github.com/noah-isme/feedesk-api/internal/utils"
)

// JWTConfig configures JWTProtected. A nil Sessions store skips the active
// session check.
type JWTConfig struct {
	Tokens   *token.Manager
	Sessions session.Store
	Logger   zerolog.Logger
}

// JWTProtected returns a middleware that validates bearer tokens and stores
// user_id, user_role and token_id in the request locals.
func JWTProtected(cfg JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := cfg.Tokens.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}
		role := normalizeRole(claims.Role)

		if cfg.Sessions != nil {
			active, err := cfg.Sessions.IsActive(c.UserContext(), role, claims.UserID, claims.ID)
			if err != nil {
				cfg.Logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to verify session")
				return utils.SendError(c, fiber.StatusServiceUnavailable, "unable to verify session")
			}
			if !active {
				return utils.SendError(c, fiber.StatusUnauthorized, "session expired, please log in again")
			}
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", role)
		c.Locals("token_id", claims.ID)

		return c.Next()
	}
}
