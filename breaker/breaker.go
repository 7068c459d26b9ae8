// Package breaker 提供按上游隔离的熔断器组件。
//
// 每个上游（立法数据 API、国会数据 API、地理编码 API）持有独立的熔断
// 状态，单个上游故障不会阻塞其他数据源。状态机遵循经典三态：
//
//   - Closed：请求正常通过，连续失败达到阈值后熔断；
//   - Open：请求立即以 ErrOpenState 短路，不发起网络调用，
//     冷却期结束后进入 HalfOpen；
//   - HalfOpen：放行有限数量的探测请求，一次成功回到 Closed
//     并清零计数，一次失败重新 Open 并重启冷却。
//
// 调用方取消 (context.Canceled) 不计为上游失败，只有真实的上游
// 错误才会推进熔断计数。
//
// ## 基本使用
//
//	brk, _ := breaker.New(&breaker.Config{
//	    FailureThreshold: 5,
//	    Cooldown:         30 * time.Second,
//	    HalfOpenProbes:   1,
//	}, breaker.WithLogger(logger))
//
//	result, err := brk.Execute("legiscan", func() (any, error) {
//	    return httpCall()
//	})
//	if breaker.IsOpen(err) {
//	    // 上游处于熔断中，走降级路径
//	}
package breaker

import (
	"time"

	"github.com/civicpulse/civicpulse/clog"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute 执行受熔断保护的函数
	// upstream: 上游标识，每个标识持有独立的熔断状态
	// 熔断打开时返回 ErrOpenState，不调用 fn
	Execute(upstream string, fn func() (any, error)) (any, error)

	// State 获取指定上游的熔断器状态；从未执行过的上游为 Closed
	State(upstream string) State
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常）
	StateClosed State = iota
	// StateHalfOpen 半开状态（探测恢复）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 熔断器配置
type Config struct {
	// FailureThreshold 触发熔断的连续失败次数（默认：5）
	FailureThreshold uint32 `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// Cooldown 打开状态持续时间（默认：30s）
	// 冷却结束后进入半开状态进行探测
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown" mapstructure:"cooldown"`

	// Interval 闭合状态下的统计周期（默认：60s）
	// 周期结束时清空计数器，失败必须在同一周期内连续累积才会触发熔断
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// HalfOpenProbes 半开状态下允许通过的探测请求数（默认：1）
	HalfOpenProbes uint32 `json:"half_open_probes" yaml:"half_open_probes" mapstructure:"half_open_probes"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown == 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.Interval == 0 {
		c.Interval = 60 * time.Second
	}
	if c.HalfOpenProbes == 0 {
		c.HalfOpenProbes = 1
	}
}

// ========================================
// 工厂函数 (Factory Functions)
// ========================================

// New 创建熔断器实例
func New(cfg *Config, opts ...Option) (Breaker, error) {
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

	return newBreaker(cfg, opt.Logger, opt.Meter), nil
}
