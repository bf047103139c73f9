package middleware

import (
	"errors"
	"strings"

	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenCookie = "token"
	claimsKey   = "claims"
)

// AuthMiddleware validates the JWT from the "token" cookie or the
// Authorization header and stores its claims for the next handlers.
func AuthMiddleware(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(TokenCookie)
		if tokenString == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				tokenString = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
		}
		if tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		claims, err := tokens.ParseJWT(tokenString)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fiber.NewError(fiber.StatusUnauthorized, "Token expired. Please sign in again.")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Invalid token. Please sign in again.")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// CurrentUser returns the claims stored by AuthMiddleware, or nil.
func CurrentUser(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsKey).(*services.Claims)
	return claims
}
