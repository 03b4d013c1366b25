package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 主配置结构 - 简化命名
type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Database  DB        `yaml:"database"`
	Cache     Cache     `yaml:"cache"`
	Auth      Auth      `yaml:"auth"`
	RateLimit Limit     `yaml:"rate_limit"`
	ShortLink ShortLink `yaml:"shortlink"`
	Reconcile Reconcile `yaml:"reconcile"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
}

// 服务器配置
type Server struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// 数据库配置
type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// 缓存配置（Redis）
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

// 限流配置
type Limit struct {
	Enabled       bool     `yaml:"enabled"`
	WindowSeconds int      `yaml:"window_seconds"`
	Threshold     int64    `yaml:"threshold"`
	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalRate    int64    `yaml:"global_requests_per_second"`
	GlobalBurst   int64    `yaml:"global_burst"`
	SkipPaths     []string `yaml:"skip_paths"`
}

// 短链接配置
type ShortLink struct {
	CodeLength    int `yaml:"code_length"`
	MaxRetries    int `yaml:"max_retries"`
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// 点击数回写配置
type Reconcile struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// 加载配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ShortLink.CodeLength == 0 {
		c.ShortLink.CodeLength = 6
	}
	if c.ShortLink.MaxRetries == 0 {
		c.ShortLink.MaxRetries = 5
	}
	if c.ShortLink.CacheTTLHours == 0 {
		c.ShortLink.CacheTTLHours = 24
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.RateLimit.Threshold == 0 {
		c.RateLimit.Threshold = 100
	}
	if c.Reconcile.IntervalMinutes == 0 {
		c.Reconcile.IntervalMinutes = 5
	}
}

// CacheTTL 解析缓存存活时间
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.ShortLink.CacheTTLHours) * time.Hour
}

// ReconcileInterval 解析回写周期
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Reconcile.IntervalMinutes) * time.Minute
}

// RateWindow 解析限流窗口
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
