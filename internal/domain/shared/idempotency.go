package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event keys a handler has already applied
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether this call was the first to do so
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
}

// DefaultIdempotencyTTL outlives any realistic redelivery of an invoice event
const DefaultIdempotencyTTL = 24 * time.Hour
