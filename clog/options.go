package clog

// Option 函数式选项，用于配置 Logger 实例
type Option func(*options)

// options 内部选项结构
type options struct {
	namespaceParts []string
}

// WithNamespace 设置日志命名空间，支持多级命名空间
//
// 示例：
//
//	// namespace 字段为 "civicd.api"
//	clog.New(cfg, clog.WithNamespace("civicd", "api"))
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}
