package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*KeyValueStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewKeyValueStore(client, ttl), mr
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestKeyValueStore_Get_Success(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, mr.Set("storefront:sess-1:cart-storage", `{"version":1,"items":[]}`))

	got, err := s.Get(context.Background(), "sess-1:cart-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, string(got))
}

func TestKeyValueStore_Get_NotFound(t *testing.T) {
	s, _ := setupTestRedis(t, 0)

	got, err := s.Get(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestKeyValueStore_Get_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), "cart-storage")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "redis get cart-storage")
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

func TestKeyValueStore_Set_NoExpiry(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Set(context.Background(), "wishlist-storage", []byte(`{"version":1}`)))

	raw, err := mr.Get("storefront:wishlist-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, raw)
	assert.Zero(t, mr.TTL("storefront:wishlist-storage"))
}

func TestKeyValueStore_Set_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 24*time.Hour)

	require.NoError(t, s.Set(context.Background(), "cart-storage", []byte("{}")))
	assert.Equal(t, 24*time.Hour, mr.TTL("storefront:cart-storage"))

	mr.FastForward(25 * time.Hour)
	_, err := s.Get(context.Background(), "cart-storage")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestKeyValueStore_Set_Overwrites(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("one")))
	require.NoError(t, s.Set(ctx, "k", []byte("two")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

// ---------------------------------------------------------------------------
// Delete / Ping
// ---------------------------------------------------------------------------

func TestKeyValueStore_Delete(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("storefront:k"))

	require.NoError(t, s.Delete(ctx, "never-set"))
}

func TestKeyValueStore_Ping(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	assert.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
