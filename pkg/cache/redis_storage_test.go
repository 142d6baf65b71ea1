package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client), mr
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	s, mr := newRedisStorage(t)
	ctx := context.Background()

	_, err := s.GetItem(ctx, "health_app_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetItem(ctx, "health_app_a", []byte("1")))
	got, err := s.GetItem(ctx, "health_app_a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	assert.Zero(t, mr.TTL("health_app_a"))

	require.NoError(t, s.RemoveItem(ctx, "health_app_a"))
	assert.False(t, mr.Exists("health_app_a"))
}

func TestRedisStorage_KeysByPrefix(t *testing.T) {
	s, mr := newRedisStorage(t)
	ctx := context.Background()

	mr.Set("health_app_doctors_list", "x")
	mr.Set("health_app_doctor_1", "y")
	mr.Set("access_token:abc", "z")

	keys, err := s.Keys(ctx, "health_app_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"health_app_doctors_list", "health_app_doctor_1"}, keys)
}

func TestCache_WithRedisStorage(t *testing.T) {
	s, _ := newRedisStorage(t)
	c, clk := newTestCache(t, s)
	ctx := context.Background()

	c.Set(ctx, "doctors_list", []doctor{{ID: "d1", Name: "Ada"}}, time.Hour)

	var got []doctor
	require.True(t, c.Get(ctx, "doctors_list", &got))
	assert.Equal(t, "Ada", got[0].Name)

	clk.Advance(2 * time.Hour)
	assert.False(t, c.Get(ctx, "doctors_list", &got))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
}
