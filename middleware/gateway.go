// middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware rejects any request that does not carry the shared
// engine token. The engine sits behind the gateway and never accepts traffic
// from anywhere else; identity headers on the request are only trusted
// because this check passed first.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("GAME_ENGINE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ GAME_ENGINE_TOKEN is not set — engine cannot authenticate the gateway")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [GATEWAY_AUTH] no Authorization header on %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != expectedToken {
			log.Printf("❌ [GATEWAY_AUTH] token rejected on %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
