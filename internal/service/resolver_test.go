package service

import (
	"context"
	"testing"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_CacheAside(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	resolver := NewResolver(db, store, time.Hour, testLogger())
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://a.example/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 冷读：未命中 -> 回源 -> 回填
	got, err := resolver.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", got)

	cached, err := store.Get(ctx, urlKey(link.ShortCode))
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", cached)

	// 热读：直接从数据库删掉行，命中缓存时不应察觉
	require.NoError(t, db.Where("id = ?", link.ID).Delete(&model.ShortLink{}).Error)
	got, err = resolver.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", got, "热路径应只读缓存")
}

func TestResolver_NotFound(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	resolver := NewResolver(db, store, time.Hour, testLogger())

	_, err := resolver.Resolve(context.Background(), "nosuch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_InactiveIsNotFound(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	resolver := NewResolver(db, store, time.Hour, testLogger())
	ctx := context.Background()

	link := model.ShortLink{ShortCode: "paused", OriginalURL: "https://a.example/x", OwnerID: 1, IsActive: false}
	require.NoError(t, db.Create(&link).Error)

	_, err := resolver.Resolve(ctx, "paused")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_ExpiredNeverCached(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	resolver := NewResolver(db, store, time.Hour, testLogger())
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	link := model.ShortLink{ShortCode: "oldone", OriginalURL: "https://a.example/x", OwnerID: 1, IsActive: true, ExpiresAt: &past}
	require.NoError(t, db.Create(&link).Error)

	_, err := resolver.Resolve(ctx, "oldone")
	assert.ErrorIs(t, err, ErrExpired)

	// 过期链接绝不能进缓存，否则会在 TTL 窗口内复活
	_, err = store.Get(ctx, urlKey("oldone"))
	assert.ErrorIs(t, err, cache.ErrMiss)

	// 数据库侧续期后，下一次解析立即生效
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.Model(&model.ShortLink{}).Where("short_code = ?", "oldone").Update("expires_at", &future).Error)

	got, err := resolver.Resolve(ctx, "oldone")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", got)
}

func TestResolver_UpdateNeverServesStale(t *testing.T) {
	db, store, cleanup := setupService(t)
	defer cleanup()
	registry := newTestRegistry(db, store)
	resolver := NewResolver(db, store, time.Hour, testLogger())
	ctx := context.Background()

	link, err := registry.Create(ctx, CreateLinkInput{
		OriginalURL: "https://a.example/x",
		OwnerID:     1,
	})
	require.NoError(t, err)

	// 先解析一次把旧值放进缓存
	_, err = resolver.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)

	newURL := "https://b.example/y"
	_, err = registry.Update(ctx, link.ShortCode, 1, UpdateLinkInput{OriginalURL: &newURL})
	require.NoError(t, err)

	got, err := resolver.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, newURL, got, "更新确认后不允许再读到旧地址")
}

func TestResolver_FastTierDownFallsBackToDB(t *testing.T) {
	db, _, cleanup := setupService(t)
	defer cleanup()

	link := model.ShortLink{ShortCode: "direct", OriginalURL: "https://a.example/x", OwnerID: 1, IsActive: true}
	require.NoError(t, db.Create(&link).Error)

	// 快取层完全不可用时按未命中处理，直查数据库
	resolver := NewResolver(db, failingStore{}, time.Hour, testLogger())
	got, err := resolver.Resolve(context.Background(), "direct")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", got)
}
