package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
)

// RequireMetricsAuth protects the monitoring endpoints with basic auth. When
// no password is configured the endpoints are only reachable in dev mode.
func RequireMetricsAuth() fiber.Handler {
	user := env.GetEnv("METRICS_USER", "metrics")
	password := env.GetEnv("METRICS_PASSWORD", "")

	if password == "" {
		return func(c *fiber.Ctx) error {
			if env.IsDev() {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusNotFound)
		}
	}

	return basicauth.New(basicauth.Config{
		Users: map[string]string{user: password},
		Realm: "Metrics",
	})
}
