package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware lets only admins through. It trusts the role in the signed
// claims and must run after AuthMiddleware.
func AdminMiddleware(c *fiber.Ctx) error {
	if !CurrentUser(c).IsAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "Access denied. Admins only.")
	}
	return c.Next()
}
