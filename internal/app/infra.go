package app

import (
	"context"

	"replica-auth/internal/config"
	"replica-auth/internal/logger"
	"replica-auth/internal/redis"
	"replica-auth/internal/storage"
)

type Infra struct {
	KV      storage.KV
	cleanup func() error
}

// Close releases the KV backend.
func (i *Infra) Close() error {
	if i.cleanup == nil {
		return nil
	}
	return i.cleanup()
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory storage", nil)
		mem := storage.NewMemoryKV()
		return &Infra{KV: mem, cleanup: mem.Close}, nil
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.RedisAddr,
	})

	return &Infra{
		KV:      storage.NewRedisKV(redisClient.Client),
		cleanup: redisClient.Close,
	}, nil
}
