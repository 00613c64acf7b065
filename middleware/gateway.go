package middleware

import (
	"crypto/subtle"
	"strings"

	"thunderbloop/utils"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware only lets through requests carrying the shared
// service token, read from X-Service-Token or, failing that, Authorization.
// An empty expected token disables the check.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		utils.Log.Warn("⚠️ SERVICE_TOKEN not set, gateway authentication disabled")
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			token = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if token == "" {
			utils.Log.Warnw("🚫 [GATEWAY_AUTH] missing service token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			utils.Log.Warnw("❌ [GATEWAY_AUTH] invalid service token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}
