package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevocationList_RevokeAndExpire(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	list := NewRevocationList(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	require.True(t, list.Enabled())

	ctx := context.Background()
	token := "access-token-1"
	require.NoError(t, list.Revoke(ctx, token, 2*time.Second))

	ok, err := list.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	other, err := list.IsRevoked(ctx, "access-token-2")
	require.NoError(t, err)
	require.False(t, other)

	// advance past TTL
	m.FastForward(3 * time.Second)

	ok2, err := list.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.False(t, ok2)
}

func TestRevocationList_NonPositiveTTLIsNoop(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	list := NewRevocationList(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()
	require.NoError(t, list.Revoke(ctx, "expired", 0))
	ok, err := list.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevocationList_NoClient_Noop(t *testing.T) {
	ctx := context.Background()
	for _, list := range []*RevocationList{nil, NewRevocationList(nil)} {
		require.False(t, list.Enabled())
		require.NoError(t, list.Revoke(ctx, "no-client-token", time.Second))
		ok, err := list.IsRevoked(ctx, "no-client-token")
		require.NoError(t, err)
		require.False(t, ok)
	}
}
