// Package config 提供统一的配置管理能力。
// 支持多源配置加载、热更新和配置验证，基于 Viper 实现。
//
// 特性：
//   - 多源配置加载：YAML/JSON 文件、环境变量、.env 文件
//   - 配置优先级：环境变量 > .env > 基础配置文件
//   - 热更新支持：监听配置文件变化，自动通知订阅者
//
// 上游基址、API Key、配额预算、熔断阈值、缓存 TTL 等全部来自配置，
// 核心组件不硬编码任何上游参数。
//
// 基本使用：
//
//	loader := config.MustLoad(
//		config.WithConfigName("config"),
//		config.WithConfigPaths("./config"),
//		config.WithEnvPrefix("CIVICPULSE"),
//	)
//
//	var cfg AppConfig
//	if err := loader.Unmarshal(&cfg); err != nil {
//		panic(err)
//	}
package config

import (
	"context"
	"time"

	"github.com/civicpulse/civicpulse/xerrors"
)

// Loader 定义配置加载器的核心行为
// 职责：加载、解析和监听配置变化
type Loader interface {
	// Load 加载配置并初始化内部状态
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听配置变化，通过 context 取消监听
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 验证当前配置的有效性
	Validate() error
}

// Event 配置变更事件
type Event struct {
	Key       string // 配置 key
	Value     any    // 新值
	OldValue  any    // 旧值
	Source    string // "file" | "env"
	Timestamp time.Time
}

// New 创建配置加载器（未加载，需调用 Load）
func New(opts ...Option) (Loader, error) {
	return newLoader(opts...)
}

// MustLoad 创建并加载配置，失败时 panic。仅用于初始化阶段。
func MustLoad(opts ...Option) Loader {
	loader := xerrors.Must(newLoader(opts...))
	if err := loader.Load(context.Background()); err != nil {
		panic(err)
	}
	return loader
}
