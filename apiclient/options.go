package apiclient

import (
	"net/http"

	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
)

// Option 客户端选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	Logger     clog.Logger
	Meter      metrics.Meter
	HTTPClient *http.Client
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("apiclient")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.Logger = l.WithNamespace("apiclient")
		}
	}
}

// WithMeter 注入指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		o.Meter = m
	}
}

// WithHTTPClient 注入自定义 HTTP 客户端（代理、连接池调优等）
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.HTTPClient = c
	}
}
