// Package cache 提供分层 TTL 缓存组件，是上游数据的唯一落地点。
//
// 缓存语义：
//   - 每个条目携带写入时间与逻辑 TTL，Get 采用惰性过期：
//     一旦 now > storedAt + ttl，即使条目物理存在也返回 ErrMiss。
//   - GetStale 额外允许读取逻辑过期但尚未被驱逐的条目（降级路径：
//     配额耗尽或上游熔断时，陈旧数据优于没有数据）。
//   - 容量驱逐与 TTL 无关：达到容量上限时按近期最少使用优先驱逐。
//   - 写入失败静默降级为"未缓存"，绝不阻塞调用方。
//
// TTL 按数据波动性分为三档（Volatile/Standard/Durable），调用方也可
// 显式指定 TTL 覆盖档位默认值。
//
// 支持单机模式 (standalone，基于 otter 的进程内缓存) 和分布式模式
// (distributed，基于 Redis，多实例共享且重启后陈旧数据仍可用)。
//
// 基本使用：
//
//	cacheClient, _ := cache.New(&cache.Config{
//	    Mode:   "standalone",
//	    Prefix: "civicpulse:",
//	}, cache.WithLogger(logger))
//
//	_ = cacheClient.Set(ctx, "bill:CA:1234", bill, cache.TierStandard)
//
//	var cached Bill
//	err := cacheClient.Get(ctx, "bill:CA:1234", &cached)
package cache

import (
	"context"
	"time"

	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/xerrors"
)

// Cache 定义缓存组件的核心能力
type Cache interface {
	// Get 读取未过期的条目；条目缺失或逻辑过期时返回 ErrMiss
	Get(ctx context.Context, key string, dest any) error

	// GetStale 读取条目并容忍逻辑过期；stale 为 true 表示条目已过期。
	// 条目物理缺失时返回 ErrMiss。
	GetStale(ctx context.Context, key string, dest any) (stale bool, err error)

	// Set 按档位默认 TTL 写入条目
	Set(ctx context.Context, key string, value any, tier Tier) error

	// SetWithTTL 按显式 TTL 写入条目（覆盖档位默认值）
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Invalidate 删除条目（含陈旧副本）
	Invalidate(ctx context.Context, key string) error

	// Close 释放缓存资源
	Close() error
}

// Config 缓存组件统一配置
type Config struct {
	// Mode 缓存模式: "standalone" | "distributed" (默认 "standalone")
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Prefix 全局 Key 前缀 (e.g., "civicpulse:")
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer: "json" | "msgpack" (默认 "json")
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`

	// Tiers 各档位的默认 TTL，零值采用内置默认
	Tiers TierTTL `json:"tiers" yaml:"tiers" mapstructure:"tiers"`

	// StaleRetention 逻辑过期后陈旧副本的物理保留时长（默认 24h）。
	// 超过该时长的条目被物理清除，GetStale 也无法再读到。
	StaleRetention time.Duration `json:"stale_retention" yaml:"stale_retention" mapstructure:"stale_retention"`

	// Standalone 单机缓存配置
	Standalone *StandaloneConfig `json:"standalone" yaml:"standalone" mapstructure:"standalone"`
}

// StandaloneConfig 单机缓存配置
type StandaloneConfig struct {
	// Capacity 缓存最大容量（条目数，默认：10000）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.Mode == "" {
		c.Mode = "standalone"
	}
	if c.Serializer == "" {
		c.Serializer = "json"
	}
	if c.StaleRetention == 0 {
		c.StaleRetention = 24 * time.Hour
	}
	c.Tiers.setDefaults()
}

// New 根据配置创建缓存实例
//
// 分布式模式需要通过 WithRedisConnector 注入 Redis 连接器。
func New(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = clog.Discard()
	}

	switch cfg.Mode {
	case "standalone":
		return newStandalone(cfg, opt.Logger, opt.Meter)
	case "distributed":
		if opt.RedisConn == nil {
			return nil, xerrors.New("cache: redis connector is required for distributed mode, use WithRedisConnector")
		}
		return newRedis(cfg, opt.RedisConn, opt.Logger, opt.Meter)
	default:
		return nil, xerrors.New("cache: unknown mode " + cfg.Mode)
	}
}
