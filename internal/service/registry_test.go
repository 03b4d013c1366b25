package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkhub/internal/model"
	"linkhub/internal/shortcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Create(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/some/long/path",
		OwnerID:     1,
	})
	require.NoError(t, err)
	assert.Len(t, link.ShortCode, 6, "随机短码长度应为配置值")
	assert.True(t, link.IsActive)
	assert.Equal(t, uint(1), link.OwnerID)
}

func TestRegistry_Create_CustomAlias(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		CustomCode:  "  My-Alias ",
		OwnerID:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "my-alias", link.ShortCode, "别名应被规整为小写")

	// 同一别名第二次创建应失败
	_, err = registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/y",
		CustomCode:  "my-alias",
		OwnerID:     2,
	})
	assert.ErrorIs(t, err, ErrAliasTaken)
}

func TestRegistry_Create_Validation(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	cases := []struct {
		name string
		url  string
	}{
		{"非 http 协议", "ftp://example.com/file"},
		{"回环地址", "http://127.0.0.1/admin"},
		{"localhost", "https://localhost:8080/x"},
		{"内网地址", "http://192.168.1.1/router"},
		{"缺少主机", "https:///path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.Create(ctx, CreateLinkInput{OriginalURL: tc.url, OwnerID: 1})
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}

	// 非法别名
	_, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		CustomCode:  "a!",
		OwnerID:     1,
	})
	assert.ErrorIs(t, err, shortcode.ErrInvalidAlias)
}

func TestRegistry_Create_ConcurrentUniqueness(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)

	const workers = 20
	var wg sync.WaitGroup
	codes := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := registry.Create(context.Background(), CreateLinkInput{
				OriginalURL: "https://example.com/concurrent",
				OwnerID:     1,
			})
			if assert.NoError(t, err) {
				codes <- link.ShortCode
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "短码 %s 出现了两次", code)
		seen[code] = true
	}
	assert.Len(t, seen, workers)
}

func TestRegistry_Update_InvalidatesCache(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://a.example/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 预先塞入缓存，模拟已被解析过
	require.NoError(t, store.Set(ctx, urlKey(link.ShortCode), "https://a.example/x", time.Hour))

	newURL := "https://b.example/y"
	_, err = registry.Update(ctx, link.ShortCode, 1, UpdateLinkInput{OriginalURL: &newURL})
	require.NoError(t, err)

	_, err = store.Get(ctx, urlKey(link.ShortCode))
	assert.Error(t, err, "更新后缓存条目必须被清除")

	reloaded, err := registry.Get(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, newURL, reloaded.OriginalURL)
}

func TestRegistry_Update_OwnerImmutable(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 非属主更新视同不存在
	newURL := "https://example.com/hijack"
	_, err = registry.Update(ctx, link.ShortCode, 2, UpdateLinkInput{OriginalURL: &newURL})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Update_ClearExpiry(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour)
	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		ExpiresAt:   &expiry,
		OwnerID:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)

	_, err = registry.Update(ctx, link.ShortCode, 1, UpdateLinkInput{ClearExpiry: true})
	require.NoError(t, err)

	reloaded, err := registry.Get(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ExpiresAt)
}

func TestRegistry_Delete_Cascades(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 制造点击明细、缓存与待回写计数
	require.NoError(t, db.Create(&model.ClickRecord{ShortLinkID: link.ID, IPAddress: "1.2.3.4"}).Error)
	require.NoError(t, store.Set(ctx, urlKey(link.ShortCode), link.OriginalURL, time.Hour))
	_, err = store.Incr(ctx, pendingKey(link.ShortCode))
	require.NoError(t, err)
	require.NoError(t, store.SAdd(ctx, dirtySetKey, link.ShortCode))

	require.NoError(t, registry.Delete(ctx, link.ShortCode, 1, false))

	_, err = registry.Get(ctx, link.ShortCode)
	assert.ErrorIs(t, err, ErrNotFound)

	var clickCount int64
	db.Model(&model.ClickRecord{}).Where("short_link_id = ?", link.ID).Count(&clickCount)
	assert.Zero(t, clickCount, "点击明细应被级联删除")

	_, err = store.Get(ctx, urlKey(link.ShortCode))
	assert.Error(t, err, "解析缓存应被清除")
	_, err = store.Get(ctx, pendingKey(link.ShortCode))
	assert.Error(t, err, "待回写计数应被清除")

	members, err := store.SMembers(ctx, dirtySetKey)
	require.NoError(t, err)
	assert.NotContains(t, members, link.ShortCode)
}

func TestRegistry_Delete_OwnerOnly(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Delete(ctx, link.ShortCode, 2, false), ErrNotFound)
	// 管理员可以删任何人的链接
	assert.NoError(t, registry.Delete(ctx, link.ShortCode, 2, true))
}

func TestRegistry_ExpiredLinkStillReadable(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://example.com/x",
		ExpiresAt:   &past,
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 过期只影响跳转，属主在管理界面仍能读到
	got, err := registry.GetOwned(ctx, link.ShortCode, 1)
	require.NoError(t, err)
	assert.True(t, got.IsExpired(time.Now()))
}
