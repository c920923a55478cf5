package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/api/http/handlers"
	"github.com/helpdesk/it-helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	UserRoles      *handlers.UserRoleHandler
	Tickets        *handlers.TicketsHandler
	Directory      *handlers.DirectoryHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	authenticated := cfg.AuthMiddleware.Handle
	support := auth.RequireSupport()
	admin := auth.RequireAdmin()

	accounts := api.Group("/auth")
	accounts.Post("/register", cfg.Auth.Register)
	accounts.Post("/login", cfg.Auth.Login)
	accounts.Post("/logout", authenticated, cfg.Auth.Logout)
	accounts.Post("/update-password", authenticated, cfg.Auth.UpdatePassword)

	roles := api.Group("/UserRole", authenticated)
	roles.Post("/assign", admin, cfg.UserRoles.AssignRole)
	roles.Put("/confirm-user/:id", support, cfg.UserRoles.ConfirmUser)
	roles.Get("/list-users", cfg.UserRoles.ListUsers)
	roles.Get("/get-auth-users", cfg.UserRoles.SupportUsers)
	roles.Get("/departments", cfg.UserRoles.Departments)
	roles.Get("/subdepartments", cfg.UserRoles.SubDepartments)
	roles.Get("/positions", cfg.UserRoles.Positions)
	roles.Put("/:id/department", admin, cfg.UserRoles.SetDepartment)
	roles.Put("/:id/subdepartment", admin, cfg.UserRoles.SetSubDepartment)
	roles.Put("/:id/position", admin, cfg.UserRoles.SetPosition)

	tickets := api.Group("/Tickets", authenticated)
	tickets.Post("/create", cfg.Tickets.Create)
	tickets.Get("/all", cfg.Tickets.All)
	tickets.Get("/paginated", cfg.Tickets.Paginated)
	tickets.Get("/filtered", cfg.Tickets.Filtered)
	tickets.Get("/export", support, cfg.Tickets.Export)
	tickets.Get("/ticket-counts", support, cfg.Tickets.Counts)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/assign/:userId", support, cfg.Tickets.Assign)
	tickets.Put("/:id/status/:status", support, cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/mark-viewed", support, cfg.Tickets.MarkViewed)

	directory := api.Group("/admin", authenticated, support)

	departments := directory.Group("/departments")
	departments.Get("/", cfg.Directory.ListDepartments)
	departments.Post("/", cfg.Directory.CreateDepartment)
	departments.Post("/bulk-delete", cfg.Directory.BulkDeleteDepartments)
	departments.Post("/assign-manager", cfg.Directory.AssignDepartmentManager)
	departments.Post("/remove-manager", cfg.Directory.RemoveDepartmentManager)
	departments.Get("/:id", cfg.Directory.GetDepartment)
	departments.Put("/:id", cfg.Directory.UpdateDepartment)
	departments.Delete("/:id", cfg.Directory.DeleteDepartment)

	subDepartments := directory.Group("/subdepartments")
	subDepartments.Get("/", cfg.Directory.ListSubDepartments)
	subDepartments.Post("/", cfg.Directory.CreateSubDepartment)
	subDepartments.Get("/available-managers", cfg.Directory.AvailableManagers)
	subDepartments.Post("/assign-manager", cfg.Directory.AssignSubDepartmentManager)
	subDepartments.Post("/remove-manager", cfg.Directory.RemoveSubDepartmentManager)
	subDepartments.Get("/:id", cfg.Directory.GetSubDepartment)
	subDepartments.Put("/:id", cfg.Directory.UpdateSubDepartment)
	subDepartments.Delete("/:id", cfg.Directory.DeleteSubDepartment)

	positions := directory.Group("/positions")
	positions.Get("/", cfg.Directory.ListPositions)
	positions.Post("/", cfg.Directory.CreatePosition)
	positions.Get("/:id", cfg.Directory.GetPosition)
	positions.Put("/:id", cfg.Directory.UpdatePosition)
	positions.Delete("/:id", cfg.Directory.DeletePosition)

	dashboard := api.Group("/dashboard", authenticated, support)
	dashboard.Get("/resolved-reports", cfg.Dashboard.ResolvedReports())
	dashboard.Get("/ticket-status", cfg.Dashboard.TicketStatus())
	dashboard.Get("/top-concerns", cfg.Dashboard.TopConcerns())
	dashboard.Get("/top-resolvers", cfg.Dashboard.TopResolvers())
	dashboard.Get("/top-creators", cfg.Dashboard.TopCreators())
	dashboard.Get("/stats", cfg.Dashboard.Stats())
	dashboard.Get("/ticket-types", cfg.Dashboard.TicketTypes())
	dashboard.Get("/resolution-rate", cfg.Dashboard.ResolutionRate())
	dashboard.Get("/department-stats", cfg.Dashboard.DepartmentStats())
	dashboard.Get("/average-severity", cfg.Dashboard.AverageSeverity())
	dashboard.Get("/monthly-comparison", cfg.Dashboard.MonthlyComparison)
}
