package middleware

import (
	"strings"

	"thunderbloop/services"
	"thunderbloop/utils"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// UserContextMiddleware attaches the caller's identity to the request. With a
// verifier the Bearer token is checked; without one the identity headers set
// by the gateway (X-User-ID, X-User-Email, X-User-Roles) are trusted.
func UserContextMiddleware(verifier services.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id services.Identity

		if verifier != nil {
			token := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "missing bearer token",
				})
			}
			verified, err := verifier.VerifyToken(c.UserContext(), token)
			if err != nil {
				utils.Log.Warnw("❌ [USER_CTX] token rejected", "path", c.Path(), "error", err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid token",
				})
			}
			id = *verified
		} else {
			id = services.Identity{
				UserID: strings.TrimSpace(c.Get("X-User-ID")),
				Email:  strings.TrimSpace(c.Get("X-User-Email")),
				Roles:  splitRoles(c.Get("X-User-Roles")),
			}
		}

		if id.UserID == "" {
			utils.Log.Warnw("❌ [USER_CTX] user id missing on secured route", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing user identity",
			})
		}

		c.Locals(identityKey, id)
		utils.Log.Debugw("👤 [USER_CTX]", "user_id", id.UserID, "roles", id.Roles, "path", c.Path())
		return c.Next()
	}
}

// RequireAdmin rejects callers the policy does not consider admins. It must
// run after UserContextMiddleware.
func RequireAdmin(policy *services.AdminPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok || !policy.IsAdmin(id) {
			utils.Log.Warnw("🚫 admin route denied", "user_id", id.UserID, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity set by UserContextMiddleware.
func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	id, ok := c.Locals(identityKey).(services.Identity)
	return id, ok
}

func splitRoles(raw string) []string {
	var roles []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
