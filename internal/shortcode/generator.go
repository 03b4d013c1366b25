package shortcode

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Charset 包含用于生成短码的所有字符
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// DefaultLength 是随机短码的默认长度
	DefaultLength = 6
	// DefaultMaxRetries 是碰撞后的默认重试次数
	DefaultMaxRetries = 5
	// MinAliasLength 是自定义别名的最小长度，过短的别名容易撞车
	MinAliasLength = 3
)

var (
	// ErrExhausted 表示重试次数内未能找到空闲短码，属于可重试的服务端错误
	ErrExhausted = errors.New("shortcode: exhausted retries generating a free code")
	// ErrInvalidAlias 表示自定义别名不符合格式要求
	ErrInvalidAlias = errors.New("shortcode: invalid custom alias")
)

// 别名只允许字母、数字、连字符和下划线
var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ExistsFunc 查询短码是否已被占用，只读不保留
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator 负责生成唯一的短码
type Generator struct {
	length     int
	maxRetries int
}

// NewGenerator 创建短码生成器，入参为 0 时使用默认值
func NewGenerator(length, maxRetries int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Generator{length: length, maxRetries: maxRetries}
}

// Generate 随机抽取候选短码并查重，占用则重试
// 重试耗尽返回 ErrExhausted，绝不返回未查重的短码
// 此处不做任何预留，查重与插入之间的竞态由数据库唯一索引兜底
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.maxRetries; i++ {
		code, err := gonanoid.Generate(Charset, g.length)
		if err != nil {
			return "", fmt.Errorf("生成随机短码失败: %w", err)
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("查询短码占用失败: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// NormalizeAlias 规整并校验自定义别名，唯一性由调用方对注册表检查
func NormalizeAlias(alias string) (string, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if len(alias) < MinAliasLength {
		return "", fmt.Errorf("%w: 长度不能小于 %d", ErrInvalidAlias, MinAliasLength)
	}
	if !aliasPattern.MatchString(alias) {
		return "", fmt.Errorf("%w: 只允许字母、数字、连字符和下划线", ErrInvalidAlias)
	}
	return alias, nil
}
