package tasks

import (
	"context"
	"errors"
	"time"

	"linkhub/internal/service"

	"go.uber.org/zap"
)

// Reconciler 周期性地把快取层的点击增量回写进数据库
// 由进程入口 Start/Stop，独立于请求流量
type Reconciler struct {
	accumulator *service.Accumulator
	interval    time.Duration
	stopChan    chan struct{}
	logger      *zap.SugaredLogger
}

// NewReconciler 创建回写任务，interval 为 0 时默认 5 分钟
func NewReconciler(accumulator *service.Accumulator, interval time.Duration, logger *zap.SugaredLogger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		accumulator: accumulator,
		interval:    interval,
		stopChan:    make(chan struct{}),
		logger:      logger.Named("reconciler"),
	}
}

// Start 启动后台回写循环
func (r *Reconciler) Start() {
	r.logger.Infof("启动点击数回写任务, 周期 %s", r.interval)
	go r.loop()
}

// Stop 停止回写任务
func (r *Reconciler) Stop() {
	r.logger.Info("正在停止点击数回写任务...")
	close(r.stopChan)
}

func (r *Reconciler) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce()
		case <-r.stopChan:
			r.logger.Info("点击数回写任务已停止。")
			return
		}
	}
}

// runOnce 执行一轮回写，超时上限即回写周期
// 上一轮未结束时本轮直接跳过，不允许并行回写同一批短码
func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	flushed, err := r.accumulator.Reconcile(ctx)
	if err != nil {
		if errors.Is(err, service.ErrReconcileInFlight) {
			r.logger.Warn("上一轮回写尚未结束，本轮跳过")
			return
		}
		r.logger.Errorf("回写执行失败: %v", err)
		return
	}

	if len(flushed) > 0 {
		var total int64
		for _, delta := range flushed {
			total += delta
		}
		r.logger.Infof("本轮回写 %d 个短码，共 %d 次点击", len(flushed), total)
	}
}
