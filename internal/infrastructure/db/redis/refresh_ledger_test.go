package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshLedger_Consume(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ledger := NewRefreshLedger(client)
	jti := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, ledger.key(jti)) })

	fresh, err := ledger.Consume(ctx, jti, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = ledger.Consume(ctx, jti, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, fresh, "second use must be rejected")

	ttl, err := client.TTL(ctx, ledger.key(jti)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRefreshLedger_Key(t *testing.T) {
	l := NewRefreshLedger(nil)
	assert.Equal(t, "refresh:used:abc", l.key("abc"))
}
