package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

var _ store.Storage = (*Redis)(nil)

// setupTestRedis requires a redis server; TODO_TEST_REDIS_ADDR overrides localhost:6379
func setupTestRedis(t *testing.T) *Redis {
	t.Helper()

	addr := os.Getenv("TODO_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	prefix := "todo-test:" + t.Name() + ":"
	r, err := NewRedis(RedisOptions{Addr: addr, Prefix: prefix, Timeout: time.Second})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := r.client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			r.client.Del(ctx, keys...)
		}
		r.Close()
	})
	return r
}

func TestRedis_GetSet(t *testing.T) {
	r := setupTestRedis(t)

	_, ok, err := r.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set("k", "v"))
	value, ok, err := r.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestRedis_StoreRoundTrip(t *testing.T) {
	r := setupTestRedis(t)

	s := store.New(r)
	s.AddTask("Buy milk")
	s.AddTask("Walk dog")
	require.NoError(t, s.LastError())

	fresh := store.New(r)
	fresh.Load()
	assert.Equal(t, s.ListTasks(models.FilterAll), fresh.ListTasks(models.FilterAll))
}

func TestNewRedis_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	r := newRedis(client, "", 0)
	assert.Equal(t, "todo:", r.prefix)
	assert.Equal(t, 2*time.Second, r.timeout)
}

func TestNewRedis_UnreachableFails(t *testing.T) {
	_, err := NewRedis(RedisOptions{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
