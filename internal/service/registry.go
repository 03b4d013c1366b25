package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/model"
	"linkhub/internal/shortcode"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registry 短链接注册表，负责持久层 CRUD 与不变量
// 唯一性最终由数据库唯一索引兜底，生成器查重只是第一道防线
type Registry struct {
	db        *gorm.DB
	store     cache.Store
	generator *shortcode.Generator
	logger    *zap.SugaredLogger
}

// NewRegistry 创建注册表实例
func NewRegistry(db *gorm.DB, store cache.Store, generator *shortcode.Generator, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		db:        db,
		store:     store,
		generator: generator,
		logger:    logger.Named("registry"),
	}
}

// CreateLinkInput 创建短链接的入参
type CreateLinkInput struct {
	OriginalURL string
	CustomCode  string
	ExpiresAt   *time.Time
	OwnerID     uint
}

// UpdateLinkInput 更新短链接的入参，nil 表示不修改该字段
type UpdateLinkInput struct {
	OriginalURL *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// Create 校验并插入新链接
// 自定义别名占用返回 ErrAliasTaken；随机短码在查重与插入之间
// 被并发抢走时返回 ErrDuplicateCode，调用方应重新生成而不是重试同一短码
func (r *Registry) Create(ctx context.Context, input CreateLinkInput) (*model.ShortLink, error) {
	if err := validateDestination(input.OriginalURL); err != nil {
		return nil, err
	}

	if input.CustomCode != "" {
		normalized, err := shortcode.NormalizeAlias(input.CustomCode)
		if err != nil {
			return nil, err
		}
		taken, err := r.Exists(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("查询别名占用失败: %w", err)
		}
		if taken {
			return nil, ErrAliasTaken
		}
		link, err := r.insert(ctx, normalized, input)
		if errors.Is(err, ErrDuplicateCode) {
			// 并发抢注了同一别名
			return nil, ErrAliasTaken
		}
		return link, err
	}

	// 随机短码：查重通过但插入撞车时重新生成，绝不重试同一短码
	for i := 0; i < shortcode.DefaultMaxRetries; i++ {
		code, err := r.generator.Generate(ctx, r.Exists)
		if err != nil {
			return nil, err
		}
		link, err := r.insert(ctx, code, input)
		if errors.Is(err, ErrDuplicateCode) {
			r.logger.Warnf("短码插入撞车，重新生成 code=%s", code)
			continue
		}
		return link, err
	}
	return nil, shortcode.ErrExhausted
}

func (r *Registry) insert(ctx context.Context, code string, input CreateLinkInput) (*model.ShortLink, error) {
	link := model.ShortLink{
		ShortCode:   code,
		OriginalURL: input.OriginalURL,
		OwnerID:     input.OwnerID,
		ExpiresAt:   input.ExpiresAt,
		IsActive:    true,
	}
	if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("创建短链接失败: %w", err)
	}

	// 复用槽位可能残留旧缓存，插入后顺手清掉
	r.invalidate(ctx, urlKey(code))

	return &link, nil
}

// Exists 查询短码是否已被占用，包含历史与停用的记录
func (r *Registry) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Get 按短码读取链接，过期的链接照常返回，由调用方决定如何处理
func (r *Registry) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询短链接失败: %w", err)
	}
	return &link, nil
}

// GetOwned 按短码读取属主的链接，非属主视同不存在
func (r *Registry) GetOwned(ctx context.Context, code string, ownerID uint) (*model.ShortLink, error) {
	link, err := r.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return link, nil
}

// ListByOwner 返回属主的全部链接，按创建时间倒序
func (r *Registry) ListByOwner(ctx context.Context, ownerID uint) ([]model.ShortLink, error) {
	var links []model.ShortLink
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询链接列表失败: %w", err)
	}
	return links, nil
}

// Update 修改目标地址和/或过期时间，短码与属主不可变
// 顺序固定：先落库，再清缓存，最后返回，避免确认后仍长期读到旧值
func (r *Registry) Update(ctx context.Context, code string, ownerID uint, input UpdateLinkInput) (*model.ShortLink, error) {
	link, err := r.GetOwned(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.OriginalURL != nil {
		if err := validateDestination(*input.OriginalURL); err != nil {
			return nil, err
		}
		updates["original_url"] = *input.OriginalURL
	}
	if input.ClearExpiry {
		updates["expires_at"] = nil
	} else if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if len(updates) == 0 {
		return link, nil
	}

	if err := r.db.WithContext(ctx).Model(link).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新短链接失败: %w", err)
	}

	r.invalidate(ctx, urlKey(code))

	return r.Get(ctx, code)
}

// Delete 删除链接并级联删除点击明细，属主或管理员可操作
// 同时清掉解析缓存、待回写计数和脏集合登记
func (r *Registry) Delete(ctx context.Context, code string, ownerID uint, isAdmin bool) error {
	link, err := r.Get(ctx, code)
	if err != nil {
		return err
	}
	if !isAdmin && link.OwnerID != ownerID {
		return ErrNotFound
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("short_link_id = ?", link.ID).Delete(&model.ClickRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(link).Error
	})
	if err != nil {
		return fmt.Errorf("删除短链接失败: %w", err)
	}

	r.invalidate(ctx, urlKey(code), pendingKey(code))
	if err := r.store.SRem(ctx, dirtySetKey, code); err != nil {
		r.logger.Warnf("清理脏集合失败 code=%s: %v", code, err)
	}

	return nil
}

// RecentClicks 返回链接最近的点击明细，属主可见
func (r *Registry) RecentClicks(ctx context.Context, code string, ownerID uint, limit int) ([]model.ClickRecord, error) {
	link, err := r.GetOwned(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var records []model.ClickRecord
	err = r.db.WithContext(ctx).
		Where("short_link_id = ?", link.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询点击明细失败: %w", err)
	}
	return records, nil
}

// OwnerStats 属主名下的汇总数据
type OwnerStats struct {
	TotalLinks  int64 `json:"total_links"`
	ActiveLinks int64 `json:"active_links"`
	TotalClicks int64 `json:"total_clicks"`
}

// Stats 统计属主名下链接与已落库的点击总数
func (r *Registry) Stats(ctx context.Context, ownerID uint) (*OwnerStats, error) {
	var stats OwnerStats
	db := r.db.WithContext(ctx).Model(&model.ShortLink{})

	if err := db.Where("owner_id = ?", ownerID).Count(&stats.TotalLinks).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&stats.ActiveLinks).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(click_count), 0)").
		Scan(&stats.TotalClicks).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// invalidate 清缓存失败只告警，残留项最多活到 TTL 结束
func (r *Registry) invalidate(ctx context.Context, keys ...string) {
	if err := r.store.Del(ctx, keys...); err != nil {
		r.logger.Warnf("缓存失效失败 keys=%v: %v", keys, err)
	}
}

// validateDestination 校验目标地址：仅限 http/https，禁止回环和内网地址
func validateDestination(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: 仅支持 http/https 协议", ErrInvalidURL)
	}
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("%w: 缺少主机名", ErrInvalidURL)
	}
	if host == "localhost" {
		return fmt.Errorf("%w: 不允许指向本机地址", ErrInvalidURL)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("%w: 不允许指向内网地址", ErrInvalidURL)
		}
	}
	return nil
}
