package cache

import (
	"context"
	"time"
)

// BytesCache — best-effort byte cache. Получатели обязаны переживать
// промахи и ошибки: кэш никогда не является источником истины.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
