package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/patrimoine-ma/patrimoine-api/internal/config"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// HealthCheck reports liveness for probes and uptime monitors.
func HealthCheck(cfg config.Config) fiber.Handler {
	startedAt := time.Now().UTC()

	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", fiber.Map{
			"status":      "ok",
			"service":     cfg.AppName,
			"environment": cfg.AppEnv,
			"started_at":  startedAt,
			"uptime_s":    int64(time.Since(startedAt).Seconds()),
		})
	}
}
