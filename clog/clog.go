// Package clog 提供基于 slog 的结构化日志组件。
// 支持层级命名空间和运行时日志级别调整。
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("fetch completed", clog.String("upstream", "legiscan"))
//
// 创建子 Logger：
//
//	cacheLogger := logger.WithNamespace("cache")
//	cacheLogger.Debug("entry evicted", clog.String("key", key))
package clog

import "context"

// Logger 日志接口，提供结构化日志记录功能
//
// 支持五个日志级别：Debug、Info、Warn、Error、Fatal，
// 每个级别都有带 Context 和不带 Context 的版本。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// 带 Context 的日志级别方法，Context 随 slog.Handler 透传
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	// 命名空间以 "." 连接，作为日志中的 namespace 字段。
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整日志级别，对同一 handler 派生的所有子 Logger 生效
	SetLevel(level Level) error
}

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置（info 级别，console 格式，stdout 输出）。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return newLogger(config, o)
}
