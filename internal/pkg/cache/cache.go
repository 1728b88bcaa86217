package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get on a cache miss
var ErrNotFound = errors.New("key not found in cache")

// Cache is the subset of cache operations the services rely on
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// NoopCache always misses. Used when no Redis URL is configured.
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, string, interface{}) error { return ErrNotFound }

func (NoopCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

func (NoopCache) DeletePrefix(context.Context, string) error { return nil }
