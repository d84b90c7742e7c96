package middleware

import (
	"errors"
	"strings"

	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// AuthMiddleware resolves the access token into an Actor stored in Locals
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try to get token from cookie first
		accessToken := c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token and reload the account
		actor, err := authService.Authenticate(c.Context(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, domain.ErrUserInactive):
				return response.Unauthorized(c, "User account is inactive")
			case errors.Is(err, domain.ErrTokenInvalid):
				return response.Unauthorized(c, "Invalid access token")
			default:
				return response.InternalServerError(c, "Failed to authenticate")
			}
		}

		// 5. Set caller in context
		c.Locals(actorKey, actor)
		c.Locals("userID", actor.ID)
		c.Locals("username", actor.Username)
		c.Locals("role", string(actor.Role))

		return c.Next()
	}
}

// ActorFrom returns the Actor set by AuthMiddleware
func ActorFrom(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowed func(domain.Role) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !allowed(actor.Role) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// AdminOnly middleware allows only System_Admin
func AdminOnly() fiber.Handler {
	return RoleMiddleware(func(r domain.Role) bool { return r == domain.RoleSystemAdmin })
}

// RegulatorOnly middleware allows ministry roles
func RegulatorOnly() fiber.Handler {
	return RoleMiddleware(domain.Role.IsMinistry)
}
