package domain

import (
	"context"
	"time"
)

// JSONCache is a key-value store for JSON-encoded values with a TTL.
type JSONCache interface {
	// GetJSON decodes the value stored at key into dst. It reports false on a miss.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PostNotifier dispatches side effects for newly created posts.
// Dispatch is fire-and-forget: a returned error only means the job could not be queued.
type PostNotifier interface {
	NotifyNewPost(ctx context.Context, postID uint, title string) error
}
