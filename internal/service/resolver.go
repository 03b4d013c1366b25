package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 快取层单次往返的超时上限，超时按未命中处理，直查数据库
const fastTierTimeout = 500 * time.Millisecond

// Resolver 旁路缓存式的短码解析器
// 命中是热路径，不碰数据库；未命中回源并回填
type Resolver struct {
	db     *gorm.DB
	store  cache.Store
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewResolver 创建解析器，ttl 为 0 时默认 24 小时
func NewResolver(db *gorm.DB, store cache.Store, ttl time.Duration, logger *zap.SugaredLogger) *Resolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Resolver{
		db:     db,
		store:  store,
		ttl:    ttl,
		logger: logger.Named("resolver"),
	}
}

// Resolve 短码换目标地址
// 不存在或已停用返回 ErrNotFound；存在但过期返回 ErrExpired
// 过期和不存在的链接一律不回填缓存，否则会在 TTL 窗口内继续生效
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	cacheCtx, cancel := context.WithTimeout(ctx, fastTierTimeout)
	defer cancel()

	cached, err := r.store.Get(cacheCtx, urlKey(code))
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// 快取层不可用不挡跳转，降级为直查
		r.logger.Warnf("快取读取失败，降级直查数据库 code=%s: %v", code, err)
	}

	var link model.ShortLink
	err = r.db.WithContext(ctx).
		Where("short_code = ? AND is_active = ?", code, true).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("查询短链接失败: %w", err)
	}

	if link.IsExpired(time.Now()) {
		return "", ErrExpired
	}

	setCtx, cancelSet := context.WithTimeout(ctx, fastTierTimeout)
	defer cancelSet()
	if err := r.store.Set(setCtx, urlKey(code), link.OriginalURL, r.ttl); err != nil {
		r.logger.Warnf("缓存回填失败 code=%s: %v", code, err)
	}

	return link.OriginalURL, nil
}
