package clog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler   slog.Handler
	level     *slog.LevelVar // 同一 handler 派生的所有子 Logger 共享
	namespace string
	baseAttrs []slog.Attr
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config, opts *options) (Logger, error) {
	var out io.Writer
	switch config.Output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	level := new(slog.LevelVar)
	parsed, _ := ParseLevel(config.Level)
	level.Set(parsed.toSlogLevel())

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return &loggerImpl{
		handler:   handler,
		level:     level,
		namespace: strings.Join(opts.namespaceParts, "."),
	}, nil
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.log(context.Background(), DebugLevel, msg, fields)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.log(context.Background(), InfoLevel, msg, fields)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.log(context.Background(), WarnLevel, msg, fields)
}

func (l *loggerImpl) Error(msg string, fields ...Field) {
	l.log(context.Background(), ErrorLevel, msg, fields)
}

func (l *loggerImpl) Fatal(msg string, fields ...Field) {
	l.log(context.Background(), FatalLevel, msg, fields)
	os.Exit(1)
}

func (l *loggerImpl) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, DebugLevel, msg, fields)
}

func (l *loggerImpl) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, InfoLevel, msg, fields)
}

func (l *loggerImpl) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, WarnLevel, msg, fields)
}

func (l *loggerImpl) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, ErrorLevel, msg, fields)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	child := *l
	child.baseAttrs = append(append([]slog.Attr{}, l.baseAttrs...), fields...)
	return &child
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	child := *l
	joined := strings.Join(parts, ".")
	if l.namespace != "" && joined != "" {
		child.namespace = l.namespace + "." + joined
	} else if joined != "" {
		child.namespace = joined
	}
	return &child
}

func (l *loggerImpl) SetLevel(level Level) error {
	l.level.Set(level.toSlogLevel())
	return nil
}

// NamespaceKey 是日志中命名空间的字段名，用于标识组件来源
const NamespaceKey = "namespace"

func (l *loggerImpl) log(ctx context.Context, level Level, msg string, fields []Field) {
	slogLevel := level.toSlogLevel()
	if !l.handler.Enabled(ctx, slogLevel) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.baseAttrs)+len(fields)+1)
	if l.namespace != "" {
		attrs = append(attrs, slog.String(NamespaceKey, l.namespace))
	}
	attrs = append(attrs, l.baseAttrs...)
	attrs = append(attrs, fields...)

	slog.New(l.handler).LogAttrs(ctx, slogLevel, msg, attrs...)
}
