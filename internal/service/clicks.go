package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"linkhub/internal/cache"
	"linkhub/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClickMeta 单次点击携带的客户端信息
type ClickMeta struct {
	IP        string
	UserAgent string
	Referer   string
}

// Accumulator 点击计数累加器
// 跳转路径只做快取层原子自增，持久层计数由 Reconcile 周期性回写
// 不变量：落库计数 + 待回写增量 = 观测到的点击总数（崩溃丢失的窗口除外）
type Accumulator struct {
	db     *gorm.DB
	store  cache.Store
	logger *zap.SugaredLogger

	// 回写互斥，同一批短码不允许两轮回写并行
	reconcileMu sync.Mutex
}

// NewAccumulator 创建累加器实例
func NewAccumulator(db *gorm.DB, store cache.Store, logger *zap.SugaredLogger) *Accumulator {
	return &Accumulator{
		db:     db,
		store:  store,
		logger: logger.Named("clicks"),
	}
}

// RecordClick 记录一次点击
// 计数自增与脏集合登记都是快取层原子操作，首次自增由 INCR 原子初始化为 1
// 明细日志尽力而为，任何失败都不能影响跳转
func (a *Accumulator) RecordClick(ctx context.Context, code string, meta ClickMeta) {
	if _, err := a.store.Incr(ctx, pendingKey(code)); err != nil {
		// 快取层不可用时放弃本次计数，宁可少计不挡跳转
		a.logger.Warnf("点击计数自增失败 code=%s: %v", code, err)
	} else if err := a.store.SAdd(ctx, dirtySetKey, code); err != nil {
		a.logger.Warnf("脏集合登记失败 code=%s: %v", code, err)
	}

	a.appendClickLog(ctx, code, meta)
}

// appendClickLog 追加点击明细
func (a *Accumulator) appendClickLog(ctx context.Context, code string, meta ClickMeta) {
	var link model.ShortLink
	err := a.db.WithContext(ctx).Select("id").
		Where("short_code = ?", code).First(&link).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			a.logger.Warnf("点击明细查询链接失败 code=%s: %v", code, err)
		}
		return
	}

	record := model.ClickRecord{
		ShortLinkID: link.ID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		Referer:     meta.Referer,
	}
	if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
		a.logger.Warnf("点击明细写入失败 code=%s: %v", code, err)
	}
}

// Pending 读取某个短码尚未回写的增量
func (a *Accumulator) Pending(ctx context.Context, code string) (int64, error) {
	raw, err := a.store.Get(ctx, pendingKey(code))
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Reconcile 把待回写增量折算进持久层计数
// 逐码处理：相对更新（click_count + delta）落库后按 delta 递减计数，
// 而不是清零，夹在中间到达的新增量会留到下一轮
// 单个短码失败只记日志并保留计数，不影响其余短码
func (a *Accumulator) Reconcile(ctx context.Context) (map[string]int64, error) {
	if !a.reconcileMu.TryLock() {
		return nil, ErrReconcileInFlight
	}
	defer a.reconcileMu.Unlock()

	codes, err := a.store.SMembers(ctx, dirtySetKey)
	if err != nil {
		return nil, err
	}

	flushed := make(map[string]int64)
	for _, code := range codes {
		delta, ok := a.flushOne(ctx, code)
		if ok && delta > 0 {
			flushed[code] = delta
		}
	}
	return flushed, nil
}

// flushOne 回写单个短码，返回写入的增量
func (a *Accumulator) flushOne(ctx context.Context, code string) (int64, bool) {
	raw, err := a.store.Get(ctx, pendingKey(code))
	if errors.Is(err, cache.ErrMiss) {
		// 计数已不存在，清掉脏登记
		a.dropDirty(ctx, code)
		return 0, true
	}
	if err != nil {
		a.logger.Warnf("读取待回写计数失败 code=%s: %v", code, err)
		return 0, false
	}

	delta, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.logger.Errorf("待回写计数损坏 code=%s value=%q: %v", code, raw, err)
		a.dropCounter(ctx, code)
		return 0, false
	}
	if delta <= 0 {
		a.dropDirty(ctx, code)
		return 0, true
	}

	result := a.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("short_code = ?", code).
		Update("click_count", gorm.Expr("click_count + ?", delta))
	if result.Error != nil {
		// 保留计数，下一轮重试；不阻塞其余短码
		a.logger.Errorf("回写落库失败 code=%s delta=%d: %v", code, delta, result.Error)
		return 0, false
	}
	if result.RowsAffected == 0 {
		// 链接已删除，增量作废
		a.dropCounter(ctx, code)
		return 0, true
	}

	remaining, err := a.store.DecrBy(ctx, pendingKey(code), delta)
	if err != nil {
		// 落库成功但递减失败，下一轮会重复累加，必须显眼地报出来
		a.logger.Errorf("计数递减失败，可能导致重复累加 code=%s delta=%d: %v", code, delta, err)
		return delta, true
	}
	if remaining <= 0 {
		a.dropDirty(ctx, code)
	}

	a.logger.Infof("回写完成 code=%s delta=%d", code, delta)
	return delta, true
}

func (a *Accumulator) dropDirty(ctx context.Context, code string) {
	if err := a.store.SRem(ctx, dirtySetKey, code); err != nil {
		a.logger.Warnf("清理脏集合失败 code=%s: %v", code, err)
	}
}

func (a *Accumulator) dropCounter(ctx context.Context, code string) {
	if err := a.store.Del(ctx, pendingKey(code)); err != nil {
		a.logger.Warnf("删除计数失败 code=%s: %v", code, err)
	}
	a.dropDirty(ctx, code)
}
