package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/observability"
	"github.com/fixit/helpdesk-service/internal/persistence"
	"github.com/fixit/helpdesk-service/internal/repository"
	"github.com/fixit/helpdesk-service/internal/service"
)

// operator is the actor the CLI presents to role-gated services.
var operator = &domain.User{ID: "helpdeskctl", Name: "helpdeskctl", Role: domain.RoleAdmin}

// app holds the services a command works with.
type app struct {
	identity  *service.IdentityService
	incidents *service.IncidentService
	reports   *service.ReportService
	close     func() error
}

// appOpener builds an app for a command run.
type appOpener func(ctx context.Context, cfg *config.Config) (*app, error)

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, err
	}
	store, err := persistence.Open(ctx, *cfg, logger)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, store, logger), nil
}

func newApp(cfg *config.Config, store persistence.BlobStore, logger *zap.Logger) *app {
	users := repository.NewUserRepository(store, logger)
	incidents := repository.NewIncidentRepository(store, logger)
	return &app{
		identity: service.NewIdentityService(*cfg, service.IdentityDependencies{
			UserRepo:    users,
			SessionRepo: repository.NewSessionRepository(store, logger),
			Logger:      logger,
		}),
		incidents: service.NewIncidentService(service.IncidentDependencies{
			IncidentRepo: incidents,
			UserRepo:     users,
			Logger:       logger,
		}),
		reports: service.NewReportService(service.ReportDependencies{IncidentRepo: incidents}),
		close: func() error {
			_ = logger.Sync()
			return store.Close()
		},
	}
}
