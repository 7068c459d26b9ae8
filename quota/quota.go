// Package quota 提供按上游计量的调用配额跟踪。
//
// 付费上游（立法数据 API、国会数据 API、地理编码 API）通常按固定周期
// （如 30 天）限制调用次数。本组件在每次真实网络调用前进行预约：
//
//   - TryReserve 成功表示本次调用计入预算，计数单调递增；
//   - 预算耗尽时返回 ErrQuotaExceeded，且不再递增计数；
//   - 窗口到期时计数归零，窗口起点前移到当前时刻。
//
// 缓存命中与熔断短路不产生预约，不消耗配额。
//
// 基本使用：
//
//	tracker, _ := quota.New(&quota.Config{
//	    Default: quota.Budget{Calls: 5000, Window: 30 * 24 * time.Hour},
//	    Budgets: map[string]quota.Budget{
//	        "geocodio": {Calls: 2500, Window: 30 * 24 * time.Hour},
//	    },
//	}, quota.WithLogger(logger))
//
//	if err := tracker.TryReserve(ctx, "legiscan"); err != nil {
//	    // 配额耗尽，走降级路径
//	}
package quota

import (
	"context"
	"time"

	"github.com/civicpulse/civicpulse/clog"
)

// Budget 单个上游的配额预算
type Budget struct {
	// Calls 窗口内允许的调用总数
	Calls int `json:"calls" yaml:"calls" mapstructure:"calls"`

	// Window 窗口时长（如 30 天）
	Window time.Duration `json:"window" yaml:"window" mapstructure:"window"`
}

// Usage 某一时刻的配额使用快照
type Usage struct {
	// Used 当前窗口内已消耗的调用数
	Used int

	// Budget 窗口内的调用总预算
	Budget int

	// ResetsAt 当前窗口的结束时刻，届时计数归零
	ResetsAt time.Time
}

// Remaining 剩余可用调用数
func (u Usage) Remaining() int {
	if r := u.Budget - u.Used; r > 0 {
		return r
	}
	return 0
}

// Tracker 配额跟踪器核心接口
type Tracker interface {
	// TryReserve 为一次即将发起的上游调用预约配额。
	// 预约成功返回 nil 并递增计数；预算耗尽返回 ErrQuotaExceeded
	// 且计数保持不变。同一上游的并发预约是线性化的，不会丢失更新。
	TryReserve(ctx context.Context, upstream string) error

	// Usage 返回指定上游当前窗口的使用快照
	Usage(upstream string) Usage
}

// Config 配额跟踪器配置
type Config struct {
	// Default 未在 Budgets 中列出的上游使用的默认预算。
	// 零值 (Calls == 0) 表示未知上游不受配额限制。
	Default Budget `json:"default" yaml:"default" mapstructure:"default"`

	// Budgets 按上游标识配置的预算
	Budgets map[string]Budget `json:"budgets" yaml:"budgets" mapstructure:"budgets"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.Default.Window == 0 {
		c.Default.Window = 30 * 24 * time.Hour
	}
	for name, b := range c.Budgets {
		if b.Window == 0 {
			b.Window = c.Default.Window
			c.Budgets[name] = b
		}
	}
}

// New 创建配额跟踪器
func New(cfg *Config, opts ...Option) (Tracker, error) {
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

	return newTracker(cfg, opt.Logger, opt.Meter), nil
}
