package security

import (
	"github.com/gofiber/fiber/v2"
)

// HeadersMiddleware sets baseline security headers. CORS stays permissive
// for the SPA; these headers harden everything else.
func HeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return c.Next()
	}
}
