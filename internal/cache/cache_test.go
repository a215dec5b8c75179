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

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestHelper(t *testing.T) (*Helper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHelper(client, "test:"), mr
}

func TestHelper_SetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	in := cachedValue{Name: "quiz", Count: 3}
	require.NoError(t, helper.Set(ctx, "key", in, time.Minute))

	var out cachedValue
	require.NoError(t, helper.Get(ctx, "key", &out))
	assert.Equal(t, in, out)
}

func TestHelper_GetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var out cachedValue
	err := helper.Get(context.Background(), "absent", &out)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "key", cachedValue{Name: "x"}, time.Minute))
	require.NoError(t, helper.Delete(ctx, "key"))

	var out cachedValue
	assert.ErrorIs(t, helper.Get(ctx, "key", &out), ErrCacheNotFound)
}

func TestHelper_TTLExpiry(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "key", cachedValue{Name: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out cachedValue
	assert.ErrorIs(t, helper.Get(ctx, "key", &out), ErrCacheNotFound)
}

func TestHelper_KeysArePrefixed(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "key", cachedValue{Name: "x"}, time.Minute))
	assert.True(t, mr.Exists("test:key"))
}

func TestHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewHelper(nil, "test:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "key", cachedValue{}, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "key"))

	var out cachedValue
	assert.ErrorIs(t, helper.Get(ctx, "key", &out), ErrCacheNotAvailable)
}
