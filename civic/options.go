package civic

import "github.com/civicpulse/civicpulse/clog"

// Option 适配器选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	Logger clog.Logger
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("civic")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.Logger = l.WithNamespace("civic")
		}
	}
}
