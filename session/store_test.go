package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func TestRedisStore_SetIsIdempotent(t *testing.T) {
	store, mr := setupSessionTest(t)
	ctx := context.Background()
	data := store.For("s1")

	require.NoError(t, data.AddToSet(ctx, "grants", "a"))
	require.NoError(t, data.AddToSet(ctx, "grants", "a"))

	members, err := data.SetMembers(ctx, "grants")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, members)
	assert.Equal(t, time.Hour, mr.TTL("session:s1:grants"))
}

func TestRedisStore_SessionsArePartitioned(t *testing.T) {
	store, _ := setupSessionTest(t)
	ctx := context.Background()

	require.NoError(t, store.For("s1").AddToSet(ctx, "grants", "a"))

	ok, err := store.For("s2").SetContains(ctx, "grants", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.For("s1").SetContains(ctx, "grants", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_Drain(t *testing.T) {
	store, mr := setupSessionTest(t)
	ctx := context.Background()
	data := store.For("s1")

	require.NoError(t, data.Push(ctx, "q", "one"))
	require.NoError(t, data.Push(ctx, "q", "two"))

	values, err := data.Drain(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, values)
	assert.False(t, mr.Exists("session:s1:q"))

	values, err = data.Drain(ctx, "q")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestRequestContext_Owner(t *testing.T) {
	userID := int64(7)

	guest := RequestContext{SessionID: "abc"}
	assert.Equal(t, "session:abc", guest.Owner().Key())
	assert.False(t, guest.Authenticated())

	user := RequestContext{UserID: &userID, SessionID: "abc"}
	assert.Equal(t, "user:7", user.Owner().Key())
	assert.True(t, user.Authenticated())
}

func TestRequestContext_Flashes(t *testing.T) {
	store, _ := setupSessionTest(t)
	ctx := context.Background()
	rc := RequestContext{SessionID: "s1", Data: store.For("s1")}

	require.NoError(t, rc.AddFlash(ctx, FlashSuccess, "Заказ оформлен!"))

	flashes, err := rc.Flashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Flash{{Level: FlashSuccess, Message: "Заказ оформлен!"}}, flashes)

	flashes, err = rc.Flashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}
