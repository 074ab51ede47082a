package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus scrape endpoint, registering the
// collectors on first use.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	handler := adaptor.HTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		return handler(c)
	}
}
