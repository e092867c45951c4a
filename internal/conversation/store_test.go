package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spandi-backend/internal/conversation"
)

func stores(t *testing.T) map[string]conversation.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return map[string]conversation.Store{
		"memory": conversation.NewMemoryStore(time.Hour),
		"redis":  conversation.NewRedisStore(rdb, time.Hour),
	}
}

func TestStore_CreateGetDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := conversation.New("s-" + name)
			require.NoError(t, store.Create(ctx, c))

			got, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, conversation.Greeting, got.Messages[0].Text)

			require.NoError(t, store.Delete(ctx, c.ID))
			_, err = store.Get(ctx, c.ID)
			assert.ErrorIs(t, err, conversation.ErrNotFound)
		})
	}
}

func TestStore_UpdateFailureSavesNothing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := conversation.New("s-" + name)
			require.NoError(t, store.Create(ctx, c))

			boom := errors.New("boom")
			_, err := store.Update(ctx, c.ID, func(c *conversation.Conversation) error {
				c.Composer = "should not stick"
				return boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Empty(t, got.Composer)
		})
	}
}

func TestStore_UpdateUnknownSession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Update(context.Background(), "missing", func(*conversation.Conversation) error { return nil })
			assert.ErrorIs(t, err, conversation.ErrNotFound)
		})
	}
}

func TestStore_ConcurrentSubmitsLeaveOnePending(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := conversation.New("s-" + name)
			require.NoError(t, store.Create(ctx, c))

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				ok   int
				busy int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Update(ctx, c.ID, func(c *conversation.Conversation) error {
						_, err := c.Submit("hello")
						return err
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.Is(err, conversation.ErrBusy):
						busy++
					}
				}()
			}
			wg.Wait()

			got, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Len(t, got.Messages, 2)
			assert.Equal(t, 1, ok)
			assert.NotNil(t, got.Pending)
		})
	}
}

func TestMemoryStore_Expires(t *testing.T) {
	store := conversation.NewMemoryStore(time.Millisecond)
	ctx := context.Background()
	c := conversation.New("short-lived")
	require.NoError(t, store.Create(ctx, c))

	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, c.ID)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestRedisStore_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := conversation.NewRedisStore(rdb, 30*time.Minute)
	require.NoError(t, store.Create(context.Background(), conversation.New("ttl")))

	assert.Equal(t, 30*time.Minute, mr.TTL("conversation:ttl"))

	mr.FastForward(31 * time.Minute)
	_, err := store.Get(context.Background(), "ttl")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}
