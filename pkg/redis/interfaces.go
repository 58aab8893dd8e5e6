package redis

import "context"

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// LRange returns a range of elements from a list
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// RPush appends values to the tail of a list
	RPush(ctx context.Context, key string, values ...interface{}) error

	// Del removes keys
	Del(ctx context.Context, keys ...string) error

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
