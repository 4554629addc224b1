package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixit/helpdesk-service/internal/api/http/handlers"
	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Incidents      *handlers.IncidentsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Users.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Get("/technicians", auth.RequireRole(domain.RoleAdmin, domain.RoleTechnician), cfg.Users.ListTechnicians)

	incidents := app.Group("/incidents", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	incidents.Get("/", cfg.Incidents.List)
	incidents.Post("/", cfg.Incidents.Create)
	incidents.Get("/:id", cfg.Incidents.Get)
	incidents.Patch("/:id", cfg.Incidents.Update)
	incidents.Delete("/:id", cfg.Incidents.Delete)
	incidents.Post("/:id/comments", cfg.Incidents.AddComment)
	incidents.Post("/:id/assign", cfg.Incidents.Assign)
	incidents.Post("/:id/self-assign", cfg.Incidents.SelfAssign)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin, domain.RoleTechnician))
	reports.Get("/summary", cfg.Reports.Summary)
	reports.Get("/dashboard", cfg.Reports.Dashboard)
}
