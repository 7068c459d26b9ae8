package apiclient

import (
	"context"

	"github.com/civicpulse/civicpulse/metrics"
)

// Metrics 指标常量定义
const (
	// MetricFetches 数据获取次数 (Counter)，按 outcome 标签区分：
	// cache_hit / network / stale / rejected / error
	MetricFetches = "apiclient_fetches_total"

	// LabelUpstream 上游标识标签
	LabelUpstream = "upstream"

	// LabelOutcome 结果标签
	LabelOutcome = "outcome"
)

// clientMetrics 客户端指标集合（meter 为 nil 时全部为 no-op）
type clientMetrics struct {
	fetches metrics.Counter
}

func newClientMetrics(meter metrics.Meter) *clientMetrics {
	m := &clientMetrics{}
	if meter == nil {
		return m
	}
	m.fetches, _ = meter.Counter(MetricFetches, "upstream fetch attempts by outcome")
	return m
}

func (m *clientMetrics) fetch(ctx context.Context, upstream, outcome string) {
	if m.fetches != nil {
		m.fetches.Inc(ctx, metrics.L(LabelUpstream, upstream), metrics.L(LabelOutcome, outcome))
	}
}
