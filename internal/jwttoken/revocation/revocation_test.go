package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRevocation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestInMemoryDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Revoke(ctx, "tok-2", time.Now().Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, revoked, "entries past the token's own expiry are irrelevant")
}
