// Package cache provides JSON value caches: a redis-backed one and a no-op
// one used when caching is disabled.
package cache

import (
	"context"
	"time"

	"github.com/simp-lee/microblog/internal/domain"
)

// Nop is a domain.JSONCache that stores nothing. Every read is a miss.
type Nop struct{}

var _ domain.JSONCache = Nop{}

// GetJSON always reports a miss.
func (Nop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }

// SetJSON discards value.
func (Nop) SetJSON(context.Context, string, any, time.Duration) error { return nil }

// Delete does nothing.
func (Nop) Delete(context.Context, ...string) error { return nil }
