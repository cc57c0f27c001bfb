// Package checkout guards order placement against double submits. The Redis
// guard claims a short-lived key per checkout fingerprint; a second submit of
// the same basket within the window is rejected before any write happens.
package checkout

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultWindow = 30 * time.Second

// RedisGuard implements order.Guard on a shared Redis instance, so the guard
// holds across replicas.
type RedisGuard struct {
	client *redis.Client
	window time.Duration
}

func NewRedisGuard(addr string, window time.Duration) *RedisGuard {
	if window <= 0 {
		window = defaultWindow
	}
	return &RedisGuard{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		window: window,
	}
}

// Acquire claims the key for the dedup window. False means an equivalent
// request already holds it.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, key, 1, g.window).Result()
}

// Release frees the key so a failed placement can be retried immediately.
func (g *RedisGuard) Release(ctx context.Context, key string) {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[Checkout] Failed to release key %s: %v", key, err)
	}
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}

// NoopGuard accepts every request. Used when no Redis address is configured.
type NoopGuard struct{}

func (NoopGuard) Acquire(ctx context.Context, key string) (bool, error) { return true, nil }

func (NoopGuard) Release(ctx context.Context, key string) {}
