package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodlist/internal/models"
)

const userContextKey = "currentUser"

// Authenticator resolves a bearer token to an active profile.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.UserProfile, error)
}

// AuthMiddleware requires a valid bearer token and stores the profile in context.
// Every failure yields the same 401 so callers cannot tell the reasons apart.
func AuthMiddleware(gate Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
		}

		user, err := gate.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// RequireManager rejects authenticated callers that are not managers.
// It must run after AuthMiddleware.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
		}
		if !user.IsManager() {
			return fiber.NewError(fiber.StatusForbidden, "manager access required")
		}
		return c.Next()
	}
}

// CurrentUser returns the profile AuthMiddleware stored for this request.
func CurrentUser(c *fiber.Ctx) (*models.UserProfile, bool) {
	user, ok := c.Locals(userContextKey).(*models.UserProfile)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
