package district

import (
	"github.com/civicpulse/civicpulse/apiclient"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
)

// Option 解析器选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	Logger clog.Logger
	Meter  metrics.Meter
	Client apiclient.Client
	Store  cache.Cache
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("district")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.Logger = l.WithNamespace("district")
		}
	}
}

// WithMeter 注入指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		o.Meter = m
	}
}

// WithAPIClient 注入弹性上游客户端，开启地理编码解析层
func WithAPIClient(c apiclient.Client) Option {
	return func(o *options) {
		o.Client = c
	}
}

// WithCache 注入缓存，解析结果按精度分档缓存
// (High/Medium 走 Standard 档，Low 走 Volatile 档)
func WithCache(store cache.Cache) Option {
	return func(o *options) {
		o.Store = store
	}
}
