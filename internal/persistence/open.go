package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/config"
)

// Open builds the blob store selected by cfg.Store.Backend. For postgres
// it also applies pending migrations when enabled.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (BlobStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory, "":
		logger.Warn("using in-memory store, data is lost on restart")
		return NewMemory(), nil
	case config.StoreBackendRedis:
		return NewRedis(cfg.Redis, logger), nil
	case config.StoreBackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return pg, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}
