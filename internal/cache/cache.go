package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 表示键不存在，区别于快取层不可用
var ErrMiss = errors.New("cache: key not found")

// Store 快取层抽象，所有变更操作必须是原子原语
type Store interface {
	// Get 读取字符串值，键不存在时返回 ErrMiss
	Get(ctx context.Context, key string) (string, error)
	// Set 写入带过期时间的值，ttl 为 0 表示不过期
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del 删除一个或多个键
	Del(ctx context.Context, keys ...string) error
	// Incr 原子自增，键不存在时初始化为 1
	Incr(ctx context.Context, key string) (int64, error)
	// DecrBy 原子递减并返回剩余值
	DecrBy(ctx context.Context, key string, delta int64) (int64, error)
	// IncrWindow 固定窗口计数：首次自增时设置窗口过期时间
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	// SAdd 向集合添加成员
	SAdd(ctx context.Context, key string, members ...string) error
	// SMembers 返回集合全部成员
	SMembers(ctx context.Context, key string) ([]string, error)
	// SRem 从集合移除成员
	SRem(ctx context.Context, key string, members ...string) error
}
