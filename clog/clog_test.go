package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferLogger 构造写入内存缓冲区的 logger，便于断言输出内容
func newBufferLogger(t *testing.T, format string) (*loggerImpl, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
	}

	return &loggerImpl{handler: handler, level: level}, buf
}

func TestNew(t *testing.T) {
	t.Run("nil 配置使用默认值", func(t *testing.T) {
		logger, err := New(nil)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("非法级别返回错误", func(t *testing.T) {
		_, err := New(&Config{Level: "verbose"})
		assert.Error(t, err)
	})

	t.Run("非法格式返回错误", func(t *testing.T) {
		_, err := New(&Config{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestLoggerOutput(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.Info("fetch completed", String("upstream", "legiscan"), Int("attempts", 2))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "fetch completed", record["msg"])
	assert.Equal(t, "legiscan", record["upstream"])
	assert.Equal(t, float64(2), record["attempts"])
}

func TestWithNamespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	t.Run("命名空间以点连接", func(t *testing.T) {
		buf.Reset()
		child := logger.WithNamespace("apiclient").WithNamespace("retry")
		child.Info("backing off")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "apiclient.retry", record[NamespaceKey])
	})

	t.Run("父 Logger 不受子命名空间影响", func(t *testing.T) {
		buf.Reset()
		logger.Info("plain")
		assert.NotContains(t, buf.String(), NamespaceKey)
	})
}

func TestWith(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	child := logger.With(String("request_id", "req-1"))
	child.Info("first")
	child.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "req-1")
	}
}

func TestSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	require.NoError(t, logger.SetLevel(ErrorLevel))
	logger.Info("should be filtered")
	assert.Empty(t, buf.String())

	logger.Error("should pass")
	assert.Contains(t, buf.String(), "should pass")
}

func TestErrorFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	t.Run("Error 字段输出 err_msg", func(t *testing.T) {
		buf.Reset()
		logger.Error("failed", Error(assert.AnError))
		assert.Contains(t, buf.String(), "err_msg")
	})

	t.Run("ErrorWithCode 产生嵌套结构", func(t *testing.T) {
		buf.Reset()
		logger.Error("failed", ErrorWithCode(assert.AnError, "quota_exceeded"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		group, ok := record["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "quota_exceeded", group["code"])
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	// 不应 panic
	logger.Info("ignored")
	logger.ErrorContext(context.Background(), "ignored")
	assert.Equal(t, logger, logger.With(String("k", "v")))
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"debug": DebugLevel,
		"INFO":  InfoLevel,
		"Warn":  WarnLevel,
		"error": ErrorLevel,
		"fatal": FatalLevel,
	} {
		got, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
