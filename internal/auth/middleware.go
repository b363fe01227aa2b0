package auth

import (
	"strings"

	"gestionexus-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUserNameKey = "user_name"

	TokenHeader = "x-token"
)

// Middleware accepts the token from the x-token header, or from a
// standard Authorization: Bearer header.
func Middleware(tokens *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := strings.TrimSpace(c.Get(TokenHeader))
		if tokenStr == "" {
			parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "No hay token en la petición")
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token no válido")
		}

		c.Locals(CtxUserIDKey, claims.UID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUserNameKey, claims.Name)

		return c.Next()
	}
}

const forbiddenMsg = "No tiene permisos para realizar esta acción"

// RequireRole admits callers whose token role is in roles. It must run
// after Middleware; a request without a role is forbidden.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		if !allowed[CurrentRole(c)] {
			return fiber.NewError(fiber.StatusForbidden, forbiddenMsg)
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0 outside the middleware.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	return id
}

func CurrentRole(c *fiber.Ctx) models.UserRole {
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	return role
}
