package launch

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/mx-space/landing/internal/pkg/redis"
)

const (
	redisClaimPrefix     = "landing:launch:claim:"
	defaultRedisClaimTTL = 24 * time.Hour
)

// SendGuard hands out one claim per subscriber record so overlapping
// broadcast passes never send the live notice twice.
type SendGuard interface {
	// Claim reports whether the caller now owns the send for key.
	Claim(ctx context.Context, key string) (bool, error)
	// Release gives the claim back after a failed send.
	Release(ctx context.Context, key string) error
}

// MemoryGuard holds claims for the lifetime of the process.
type MemoryGuard struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{claimed: make(map[string]struct{})}
}

func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.claimed[key]; ok {
		return false, nil
	}
	g.claimed[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.claimed, key)
	g.mu.Unlock()
	return nil
}

// RedisGuard stores claims as SET NX keys so they hold across processes
// sharing one subscriber store.
type RedisGuard struct {
	client *pkgredis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *pkgredis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultRedisClaimTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, redisClaimPrefix+key, time.Now().Unix(), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, redisClaimPrefix+key); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
