package app

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/api/dto"
	httptransport "github.com/helpdesk/it-helpdesk/internal/api/http"
	"github.com/helpdesk/it-helpdesk/internal/api/http/handlers"
	"github.com/helpdesk/it-helpdesk/internal/auth"
	"github.com/helpdesk/it-helpdesk/internal/config"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/mail"
	"github.com/helpdesk/it-helpdesk/internal/observability"
	"github.com/helpdesk/it-helpdesk/internal/persistence"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/service"
	"github.com/helpdesk/it-helpdesk/internal/worker"
)

// Dependencies are the infrastructure handles the application is assembled from.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Repos    repository.Repositories
	Tx       repository.TxManager
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Sender   mail.Sender
}

// App holds the assembled services and the HTTP application.
type App struct {
	Fiber         *fiber.App
	Auth          *service.AuthService
	Tickets       *service.TicketService
	Directory     *service.DirectoryService
	Users         *service.UserAdminService
	Dashboard     *service.DashboardService
	Notifications *service.NotificationService
	Dispatcher    events.Dispatcher
}

// New wires services, notification handlers and routes.
func New(deps Dependencies) *App {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Sender == nil {
		deps.Sender = mail.NewSender(cfg.Mail, logger)
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	composer := mail.NewComposer(mail.NewRenderer(), cfg.Mail.PortalURL)
	notifications := service.NewNotificationService(deps.Repos.Users, deps.Sender, composer, logger, deps.Metrics)
	worker.StartNotificationWorker(dispatcher, notifications, logger)

	var cache repository.ReportCache
	if deps.Redis.Enabled() {
		cache = repository.NewRedisReportCache(deps.Redis.Client, cfg.App.Name)
	}

	authService := service.NewAuthService(cfg.Auth, deps.Repos.Users, dispatcher, logger)
	ticketService := service.NewTicketService(deps.Repos, dispatcher, logger)
	directoryService := service.NewDirectoryService(deps.Repos, deps.Tx, logger)
	userService := service.NewUserAdminService(deps.Repos, dispatcher, logger)
	dashboardService := service.NewDashboardService(deps.Repos.Reports, cache, cfg.Redis.DashboardTTL(), logger)
	dashboardService.RegisterHandlers(dispatcher)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, deps.Metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout())

	validator := dto.NewValidator()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis, deps.Metrics),
		Auth:           handlers.NewAuthHandler(authService, validator),
		UserRoles:      handlers.NewUserRoleHandler(userService, directoryService, validator),
		Tickets:        handlers.NewTicketsHandler(ticketService, validator),
		Directory:      handlers.NewDirectoryHandler(directoryService, validator),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), deps.Repos.Users),
	})

	return &App{
		Fiber:         app,
		Auth:          authService,
		Tickets:       ticketService,
		Directory:     directoryService,
		Users:         userService,
		Dashboard:     dashboardService,
		Notifications: notifications,
		Dispatcher:    dispatcher,
	}
}
