package metrics

import "context"

// Discard 返回一个丢弃所有记录的 Meter，用于测试或禁用指标的场景
func Discard() Meter {
	return &noopMeter{}
}

type noopMeter struct{}

func (m *noopMeter) Counter(name string, desc string) (Counter, error)     { return &noopMetric{}, nil }
func (m *noopMeter) Gauge(name string, desc string) (Gauge, error)         { return &noopMetric{}, nil }
func (m *noopMeter) Histogram(name string, desc string) (Histogram, error) { return &noopMetric{}, nil }

type noopMetric struct{}

func (n *noopMetric) Inc(ctx context.Context, labels ...Label)                 {}
func (n *noopMetric) Add(ctx context.Context, val float64, labels ...Label)    {}
func (n *noopMetric) Set(ctx context.Context, val float64, labels ...Label)    {}
func (n *noopMetric) Record(ctx context.Context, val float64, labels ...Label) {}
