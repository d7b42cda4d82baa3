package middleware

import (
	"strings"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/logging"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/policy"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// RequireAuth validates the bearer token and stores the account in context.
// Suspended and banned accounts are refused even with a valid token.
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Extract token from "Bearer <token>"
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return reject(c, apperr.Unauthorized("missing authorization token"))
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			return reject(c, apperr.Unauthorized("invalid authorization format. Use: Bearer <token>"))
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return reject(c, err)
		}

		c.Locals(userKey, user)
		c.SetUserContext(logging.IntoContext(c.UserContext(),
			logging.FromContext(c.UserContext()).With("user_id", user.ID)))
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.RequireAdmin(CurrentUser(c)); err != nil {
			return reject(c, err)
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated account, or nil on public routes.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userKey).(*model.User)
	return user
}

func reject(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": apperr.Public(err)})
}
