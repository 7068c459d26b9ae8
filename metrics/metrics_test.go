package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	meter := New("civicpulse-test")
	require.NotNil(t, meter)

	ctx := context.Background()

	t.Run("Counter 创建与记录", func(t *testing.T) {
		counter, err := meter.Counter("test_total", "测试计数器")
		require.NoError(t, err)
		counter.Inc(ctx, L("outcome", "success"))
		counter.Add(ctx, 3, L("outcome", "error"))
	})

	t.Run("Gauge 创建与记录", func(t *testing.T) {
		gauge, err := meter.Gauge("test_remaining", "测试仪表盘")
		require.NoError(t, err)
		gauge.Set(ctx, 42, L("upstream", "legiscan"))
	})

	t.Run("Histogram 创建与记录", func(t *testing.T) {
		hist, err := meter.Histogram("test_duration_seconds", "测试直方图")
		require.NoError(t, err)
		hist.Record(ctx, 0.25)
	})
}

func TestDiscard(t *testing.T) {
	meter := Discard()
	counter, err := meter.Counter("ignored", "")
	require.NoError(t, err)
	counter.Inc(context.Background())
	assert.NotNil(t, counter)
}
