package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "k", "v", 20*time.Millisecond))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	time.Sleep(30 * time.Millisecond)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "过期后应视同不存在")
}

func TestMemoryStore_ConcurrentIncr(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// 并发首写不允许互相覆盖
	const workers = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Incr(ctx, "counter")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "100", got)
}

func TestMemoryStore_DecrBy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Incr(ctx, "counter")
		require.NoError(t, err)
	}

	remaining, err := store.DecrBy(ctx, "counter", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, remaining)
}

func TestMemoryStore_IncrWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	count, err := store.IncrWindow(ctx, "rl:1.2.3.4", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = store.IncrWindow(ctx, "rl:1.2.3.4", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// 窗口过期后重新计数
	time.Sleep(30 * time.Millisecond)
	count, err = store.IncrWindow(ctx, "rl:1.2.3.4", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryStore_Sets(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SAdd(ctx, "dirty", "a", "b"))
	require.NoError(t, store.SAdd(ctx, "dirty", "b"))

	members, err := store.SMembers(ctx, "dirty")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, store.SRem(ctx, "dirty", "a"))
	members, err = store.SMembers(ctx, "dirty")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, members)
}
