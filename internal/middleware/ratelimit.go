package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rlKeyPrefix 限流计数的键名前缀
const rlKeyPrefix = "rl:"

// RateLimiter 按客户端 IP 的固定窗口限流器
// 计数放在快取层，快取层不可用时放行：跳转可用性优先于严格限流
type RateLimiter struct {
	store     cache.Store
	window    time.Duration
	threshold int64
	logger    *zap.SugaredLogger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(store cache.Store, window time.Duration, threshold int64, logger *zap.SugaredLogger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if threshold <= 0 {
		threshold = 100
	}
	return &RateLimiter{
		store:     store,
		window:    window,
		threshold: threshold,
		logger:    logger.Named("ratelimit"),
	}
}

// Allow 原子自增窗口计数，超过阈值拒绝
func (rl *RateLimiter) Allow(c *gin.Context) bool {
	key := rlKeyPrefix + ClientIP(c)
	count, err := rl.store.IncrWindow(c.Request.Context(), key, rl.window)
	if err != nil {
		// 快取层故障时放行
		rl.logger.Warnf("限流计数失败，放行请求: %v", err)
		return true
	}
	return count <= rl.threshold
}

// Handler 把限流器包装成 gin 中间件
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClientIP 提取客户端 IP，透传代理时取 X-Forwarded-For 的第一跳
func ClientIP(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// GlobalRateLimit 进程内的全局吞吐限流中间件，作为入口处的粗粒度保险
func GlobalRateLimit(limitConfig *config.Limit) gin.HandlerFunc {
	if !limitConfig.GlobalEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// 基于内存的限流器
	limiter := rate.NewLimiter(rate.Limit(limitConfig.GlobalRate), int(limitConfig.GlobalBurst))
	var mu sync.Mutex

	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range limitConfig.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		mu.Lock()
		allowed := limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
