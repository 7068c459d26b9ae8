package cache

import (
	"context"

	"github.com/civicpulse/civicpulse/metrics"
)

// Metrics 指标常量定义
const (
	// MetricHits 未过期命中数 (Counter)
	MetricHits = "cache_hits_total"

	// MetricMisses 未命中数，含逻辑过期 (Counter)
	MetricMisses = "cache_misses_total"

	// MetricStaleHits 通过 GetStale 读到陈旧条目的次数 (Counter)
	MetricStaleHits = "cache_stale_hits_total"

	// LabelMode 模式标签 (standalone/distributed)
	LabelMode = "mode"
)

// cacheMetrics 缓存指标集合（内部使用，meter 为 nil 时全部为 no-op）
type cacheMetrics struct {
	mode      string
	hits      metrics.Counter
	misses    metrics.Counter
	staleHits metrics.Counter
}

func newCacheMetrics(meter metrics.Meter, mode string) *cacheMetrics {
	m := &cacheMetrics{mode: mode}
	if meter == nil {
		return m
	}
	m.hits, _ = meter.Counter(MetricHits, "cache hits")
	m.misses, _ = meter.Counter(MetricMisses, "cache misses (including lazy expiry)")
	m.staleHits, _ = meter.Counter(MetricStaleHits, "stale entries served")
	return m
}

func (m *cacheMetrics) hit(ctx context.Context) {
	if m.hits != nil {
		m.hits.Inc(ctx, metrics.L(LabelMode, m.mode))
	}
}

func (m *cacheMetrics) miss(ctx context.Context) {
	if m.misses != nil {
		m.misses.Inc(ctx, metrics.L(LabelMode, m.mode))
	}
}

func (m *cacheMetrics) staleHit(ctx context.Context) {
	if m.staleHits != nil {
		m.staleHits.Inc(ctx, metrics.L(LabelMode, m.mode))
	}
}
