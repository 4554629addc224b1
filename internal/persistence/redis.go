package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/config"
)

const (
	redisDataField    = "data"
	redisVersionField = "version"
)

// Redis wraps the go-redis client. Each blob is a hash holding the JSON
// payload and its version.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, prefix: cfg.KeyPrefix}
}

func (r *Redis) key(name string) string {
	return r.prefix + name
}

func (r *Redis) Load(ctx context.Context, key string) (Blob, error) {
	vals, err := r.Client.HMGet(ctx, r.key(key), redisDataField, redisVersionField).Result()
	if err != nil {
		return Blob{}, fmt.Errorf("redis load %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return Blob{}, nil
	}
	data, _ := vals[0].(string)
	var version int64
	if raw, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Blob{}, fmt.Errorf("redis load %s: bad version %q: %w", key, raw, err)
		}
	}
	return Blob{Data: []byte(data), Version: version}, nil
}

func (r *Redis) Save(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	k := r.key(key)
	var next int64
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, redisVersionField).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		next = current + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, redisDataField, data, redisVersionField, next)
			return nil
		})
		return err
	}, k)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, ErrVersionConflict
	default:
		return 0, fmt.Errorf("redis save %s: %w", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	if r != nil && r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
