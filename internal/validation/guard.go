package validation

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// ScanGuard dedupes rapid duplicate scans of the same code before they
// reach the database. It is a convenience for gates with trigger-happy
// scanners; correctness always rests on the store's conditional update.
type ScanGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewScanGuard(client *redis.Client, ttl time.Duration) *ScanGuard {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &ScanGuard{Client: client, TTL: ttl}
}

// TryAcquire claims the code for one in-flight scan. False means another
// scan of the same code is still being processed.
func (g *ScanGuard) TryAcquire(ctx context.Context, publicCode string) (bool, error) {
	return g.Client.SetNX(ctx, "scan_lock:"+publicCode, "1", g.TTL).Result()
}

// Release frees the code early so a rejected scan can be retried without
// waiting out the TTL.
func (g *ScanGuard) Release(ctx context.Context, publicCode string) error {
	return g.Client.Del(ctx, "scan_lock:"+publicCode).Err()
}
