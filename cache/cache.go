package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyKey        = errors.New("cache key must not be empty")
	ErrInvalidCapacity = errors.New("cache capacity must be greater than zero")
)

// Store is a byte-oriented cache with per-entry time-to-live.
type Store interface {
	// Get returns the stored value and true, or false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
