package cache

import (
	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/shared"
	"github.com/erpsync/backend/internal/infrastructure/config"
)

// NewIdempotencyStore creates the webhook deduplication store appropriate
// for the configuration: Redis when enabled and reachable, otherwise the
// in-memory store suitable for single-instance deployments.
func NewIdempotencyStore(cfg *config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return store
}
