package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/http/handlers"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Products *handlers.ProductsHandler
	Realtime *realtime.Handler
	Gateway  *auth.Gateway
}

// RegisterRoutes wires HTTP and websocket routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.Gateway.RequireAuth(), cfg.Auth.Me)
	authGroup.Post("/logout", cfg.Auth.Logout)

	products := app.Group("/products")
	products.Get("/:id", cfg.Products.Get)
	products.Put("/:id/price", cfg.Gateway.RequireRole(domain.RoleAdmin), cfg.Products.UpdatePrice)

	app.Use("/ws", cfg.Realtime.UpgradeRequired)
	app.Get("/ws/prices", cfg.Realtime.Serve())
}
