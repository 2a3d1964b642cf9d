package cache

import (
	"context"
	"time"

	"github.com/cartlens/backend/internal/domain"
)

// NoopCache is the degraded mode used when no backing store is configured:
// every read misses and writes are discarded, so the pipeline always
// recomputes instead of erroring.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) GetJSON(ctx context.Context, key string, dest any) error {
	return domain.ErrCacheMiss
}

func (NoopCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (NoopCache) TTLRemaining(ctx context.Context, key string) (time.Duration, error) {
	return 0, domain.ErrCacheMiss
}
