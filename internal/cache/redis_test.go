package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type slot struct {
	TimeslotID int64  `json:"timeslot_id"`
	StartTime  string `json:"start_time"`
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCalendarCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisCalendarCache(client, 30*time.Second, zap.NewNop())
}

func TestRedisCalendarCache_SetGet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	var got []slot
	gen, err := c.Get(ctx, 4, &got)
	assert.ErrorIs(t, err, ErrMiss)
	assert.Zero(t, gen)

	want := []slot{{TimeslotID: 1, StartTime: "14:00"}, {TimeslotID: 2, StartTime: "15:30"}}
	require.NoError(t, c.Set(ctx, 4, gen, want))
	assert.True(t, mr.Exists("room-reservation:calendar:room:4"))
	assert.Equal(t, 30*time.Second, mr.TTL("room-reservation:calendar:room:4"))

	_, err = c.Get(ctx, 4, &got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisCalendarCache_Expires(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 0, []slot{{TimeslotID: 9}}))
	mr.FastForward(31 * time.Second)

	var got []slot
	_, err := c.Get(ctx, 1, &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCalendarCache_Invalidate(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 0, []slot{}))
	require.NoError(t, c.Set(ctx, 2, 0, []slot{}))
	require.NoError(t, c.Set(ctx, 3, 0, []slot{}))

	require.NoError(t, c.Invalidate(ctx, 1, 3, 1))
	assert.False(t, mr.Exists("room-reservation:calendar:room:1"))
	assert.True(t, mr.Exists("room-reservation:calendar:room:2"))
	assert.False(t, mr.Exists("room-reservation:calendar:room:3"))

	v, err := mr.Get("room-reservation:calendar:gen:1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, 24*time.Hour, mr.TTL("room-reservation:calendar:gen:1"))

	var got []slot
	gen, err := c.Get(ctx, 3, &got)
	assert.ErrorIs(t, err, ErrMiss)
	assert.EqualValues(t, 1, gen)

	assert.NoError(t, c.Invalidate(ctx))
}

func TestRedisCalendarCache_FillAfterInvalidateIsDropped(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	var got []slot
	gen, err := c.Get(ctx, 7, &got)
	require.ErrorIs(t, err, ErrMiss)

	// A booking lands between the store read and the fill.
	require.NoError(t, c.Invalidate(ctx, 7))
	require.NoError(t, c.Set(ctx, 7, gen, []slot{{TimeslotID: 1}}))
	assert.False(t, mr.Exists("room-reservation:calendar:room:7"))

	gen, err = c.Get(ctx, 7, &got)
	require.ErrorIs(t, err, ErrMiss)
	require.NoError(t, c.Set(ctx, 7, gen, []slot{{TimeslotID: 2}}))
	_, err = c.Get(ctx, 7, &got)
	require.NoError(t, err)
	assert.Equal(t, []slot{{TimeslotID: 2}}, got)
}

func TestRedisCalendarCache_UndecodableIsMiss(t *testing.T) {
	mr, c := setupTestRedis(t)
	require.NoError(t, mr.Set("room-reservation:calendar:room:5", "{not json"))

	var got []slot
	_, err := c.Get(context.Background(), 5, &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCalendarCache_ServerDown(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()

	var got []slot
	_, err := c.Get(context.Background(), 1, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestNoop(t *testing.T) {
	var c CalendarCache = Noop{}
	var got []slot
	_, err := c.Get(context.Background(), 1, &got)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Set(context.Background(), 1, 0, got))
	assert.NoError(t, c.Invalidate(context.Background(), 1))
}
