package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/patrimoine-ma/patrimoine-api/internal/config"
	"github.com/patrimoine-ma/patrimoine-api/internal/handler"
	"github.com/patrimoine-ma/patrimoine-api/internal/middleware"
	"github.com/patrimoine-ma/patrimoine-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	PatrimoineHandler   *handler.PatrimoineHandler
	InspectionHandler   *handler.InspectionHandler
	InterventionHandler *handler.InterventionHandler
	DocumentHandler     *handler.DocumentHandler
	AuditHandler        *handler.AuditHandler
	UserHandler         *handler.UserHandler
	DashboardHandler    *handler.DashboardHandler
	GeoHandler          *handler.GeoHandler
	JWTMiddleware       fiber.Handler
	IdentityMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(app.Group("/auth", middleware.RateLimit("login", 10, time.Minute)))
	}

	// Use provided auth middlewares, or no-ops if nil
	noop := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = noop
	}
	identityMiddleware := deps.IdentityMiddleware
	if identityMiddleware == nil {
		identityMiddleware = noop
	}

	authenticated := []fiber.Handler{jwtMiddleware, identityMiddleware}

	if deps.GeoHandler != nil {
		deps.GeoHandler.Register(app.Group("/geo"))
	}

	if deps.PatrimoineHandler != nil {
		deps.PatrimoineHandler.Register(app.Group("/patrimoines", authenticated...))
	}

	if deps.InspectionHandler != nil {
		inspections := app.Group("/inspections", authenticated...)
		requests := app.Group("/inspection-requests", authenticated...)
		deps.InspectionHandler.Register(inspections, requests)
	}

	if deps.InterventionHandler != nil {
		deps.InterventionHandler.Register(app.Group("/interventions", authenticated...))
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(app.Group("/documents", authenticated...))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(app.Group("/audit", authenticated...))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(app.Group("/users", authenticated...))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(app.Group("/dashboard", authenticated...))
	}
}
