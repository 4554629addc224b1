package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fixit/helpdesk-service/internal/api/http"
	"github.com/fixit/helpdesk-service/internal/api/http/handlers"
	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/events"
	"github.com/fixit/helpdesk-service/internal/observability"
	"github.com/fixit/helpdesk-service/internal/persistence"
	"github.com/fixit/helpdesk-service/internal/repository"
	"github.com/fixit/helpdesk-service/internal/service"
	"github.com/fixit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", string(cfg.Store.Backend)), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	userRepo := repository.NewUserRepository(store, logger)
	incidentRepo := repository.NewIncidentRepository(store, logger)
	sessionRepo := repository.NewSessionRepository(store, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	identityService := service.NewIdentityService(*cfg, service.IdentityDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Logger:      logger,
	})
	incidentService := service.NewIncidentService(service.IncidentDependencies{
		IncidentRepo: incidentRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{IncidentRepo: incidentRepo})

	if cfg.App.SeedDefaults {
		if _, err := identityService.SeedDefaults(ctx); err != nil {
			logger.Fatal("failed to seed default accounts", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(identityService)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, string(cfg.Store.Backend), store),
		Users:          handlers.NewUsersHandler(identityService),
		Incidents:      handlers.NewIncidentsHandler(incidentService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", string(cfg.Store.Backend)))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
