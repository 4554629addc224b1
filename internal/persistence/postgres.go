package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/config"
)

// Postgres stores blobs in the kv_blobs table of a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required for the postgres store backend")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, key string) (Blob, error) {
	const query = `SELECT value, version FROM kv_blobs WHERE key=$1`
	var blob Blob
	if err := p.Pool.QueryRow(ctx, query, key).Scan(&blob.Data, &blob.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Blob{}, nil
		}
		return Blob{}, fmt.Errorf("postgres load %s: %w", key, err)
	}
	return blob, nil
}

func (p *Postgres) Save(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	const insert = `
        INSERT INTO kv_blobs (key, value, version, updated_at)
        VALUES ($1, $2, 1, NOW())
        ON CONFLICT (key) DO NOTHING`
	const update = `
        UPDATE kv_blobs SET value=$2, version=version+1, updated_at=NOW()
        WHERE key=$1 AND version=$3`

	if expectedVersion == 0 {
		cmd, err := p.Pool.Exec(ctx, insert, key, data)
		if err != nil {
			return 0, fmt.Errorf("postgres save %s: %w", key, err)
		}
		if cmd.RowsAffected() == 0 {
			return 0, ErrVersionConflict
		}
		return 1, nil
	}

	cmd, err := p.Pool.Exec(ctx, update, key, data, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("postgres save %s: %w", key, err)
	}
	if cmd.RowsAffected() == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.Pool.Exec(ctx, `DELETE FROM kv_blobs WHERE key=$1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the pool can reach the database.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() error {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
