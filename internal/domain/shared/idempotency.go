package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers delivery keys of inbound provider messages so
// redelivered webhooks and queue messages are stored only once
type IdempotencyStore interface {
	// MarkProcessed marks a key as seen with a TTL.
	// Returns true if the key was newly marked, false if it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been seen
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so that a delivery whose storage failed can be
	// accepted again
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a delivery key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether duplicate detection is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
