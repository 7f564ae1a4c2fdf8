package middleware

import (
	"strings"

	"fra-atlas/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	localUserID   = "userID"
	localUsername = "username"
)

// OptionalAuth attaches the caller's identity when a valid bearer token is
// present. Requests without a token, or with a bad one, pass through
// anonymously; nothing in the API requires authentication.
func OptionalAuth(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if token == "" {
			return c.Next()
		}
		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Ignoring invalid token", zap.Error(err))
			return c.Next()
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)

		return c.Next()
	}
}

// UserID returns the authenticated user id, or nil for anonymous callers.
func UserID(c *fiber.Ctx) *uuid.UUID {
	raw, ok := c.Locals(localUserID).(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
