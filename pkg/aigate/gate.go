// Package aigate serializes access to the AI provider between background
// workers. The insight pass is expensive; only one batch may run at a time
// and the embedding pass must never overlap it.
package aigate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKey = "engram:aigate:busy"
	busyTTL  = 5 * time.Minute
)

// Gate is a non-blocking mutual-exclusion flag. TryAcquire returns false
// instead of waiting, so a worker tick simply skips its run and retries on
// the next interval.
type Gate struct {
	busy atomic.Bool

	// When set, the flag is mirrored to Redis so multiple instances share
	// one gate. The local flag stays authoritative for this process.
	rdb *redis.Client
}

func New() *Gate {
	return &Gate{}
}

// NewShared mirrors the gate in Redis. The TTL guards against a crashed
// holder leaving the gate closed forever.
func NewShared(rdb *redis.Client) *Gate {
	return &Gate{rdb: rdb}
}

// TryAcquire claims the gate. It never blocks.
func (g *Gate) TryAcquire(ctx context.Context) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}

	if g.rdb != nil {
		ok, err := g.rdb.SetNX(ctx, redisKey, "1", busyTTL).Result()
		if err != nil {
			// Redis being down must not stall enrichment. Fall back to the
			// local flag only.
			return true
		}
		if !ok {
			g.busy.Store(false)
			return false
		}
	}

	return true
}

// Release opens the gate again.
func (g *Gate) Release(ctx context.Context) {
	if g.rdb != nil {
		g.rdb.Del(ctx, redisKey)
	}
	g.busy.Store(false)
}

// Busy reports the local flag without acquiring.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
