package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const minLedgerTTL = time.Second

// RefreshLedger remembers consumed refresh-token ids until the token would
// have expired anyway.
// Key format: refresh:used:<jti>
type RefreshLedger struct {
	client *redis.Client
	now    func() time.Time
}

// NewRefreshLedger creates a RefreshLedger wrapping the given Redis client.
func NewRefreshLedger(client *redis.Client) *RefreshLedger {
	return &RefreshLedger{client: client, now: time.Now}
}

// Consume atomically marks tokenID as used. It returns false when the id was
// already present, meaning the refresh token is being replayed.
func (l *RefreshLedger) Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(l.now())
	if ttl < minLedgerTTL {
		ttl = minLedgerTTL
	}

	fresh, err := l.client.SetNX(ctx, l.key(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("refresh ledger: %w", err)
	}
	return fresh, nil
}

func (l *RefreshLedger) key(tokenID string) string {
	return "refresh:used:" + tokenID
}
