// Package metrics 提供统一的指标收集能力。
// 基于 OpenTelemetry metric API 构建，提供简洁的 Counter、Gauge、Histogram 接口。
//
// 组件只依赖本包的 Meter 接口；指标的导出方式（Prometheus、OTLP 等）
// 由宿主应用在装配 MeterProvider 时决定。
//
// 快速开始：
//
//	meter := metrics.New("civicpulse")
//	counter, _ := meter.Counter("cache_hits_total", "缓存命中总数")
//	counter.Inc(ctx, metrics.L("tier", "standard"))
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Label 指标标签
type Label struct {
	Key   string
	Value string
}

// L 创建标签的简写形式
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// Counter 计数器接口，记录只增不减的累计值
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘接口，记录可任意增减的瞬时值
type Gauge interface {
	// Set 将 gauge 设置为给定的值
	Set(ctx context.Context, val float64, labels ...Label)
}

// Histogram 直方图接口，记录值的分布情况
type Histogram interface {
	// Record 在直方图中记录一个值
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂接口
//
// 一个 Meter 实例通常对应一个服务；创建的指标是线程安全的。
type Meter interface {
	Counter(name string, desc string) (Counter, error)
	Gauge(name string, desc string) (Gauge, error)
	Histogram(name string, desc string) (Histogram, error)
}

// New 基于全局 OpenTelemetry MeterProvider 创建 Meter
//
// 宿主应用未安装 MeterProvider 时，底层为 otel 默认的 noop 实现，
// 所有记录调用安全且零开销。
func New(name string) Meter {
	return &otelMeter{meter: otel.GetMeterProvider().Meter(name)}
}

type otelMeter struct {
	meter metric.Meter
}

func (m *otelMeter) Counter(name string, desc string) (Counter, error) {
	c, err := m.meter.Float64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return nil, err
	}
	return &otelCounter{counter: c}, nil
}

func (m *otelMeter) Gauge(name string, desc string) (Gauge, error) {
	g, err := m.meter.Float64Gauge(name, metric.WithDescription(desc))
	if err != nil {
		return nil, err
	}
	return &otelGauge{gauge: g}, nil
}

func (m *otelMeter) Histogram(name string, desc string) (Histogram, error) {
	h, err := m.meter.Float64Histogram(name, metric.WithDescription(desc))
	if err != nil {
		return nil, err
	}
	return &otelHistogram{histogram: h}, nil
}

type otelCounter struct {
	counter metric.Float64Counter
}

func (c *otelCounter) Inc(ctx context.Context, labels ...Label) {
	c.counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

func (c *otelCounter) Add(ctx context.Context, val float64, labels ...Label) {
	c.counter.Add(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

type otelGauge struct {
	gauge metric.Float64Gauge
}

func (g *otelGauge) Set(ctx context.Context, val float64, labels ...Label) {
	g.gauge.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

type otelHistogram struct {
	histogram metric.Float64Histogram
}

func (h *otelHistogram) Record(ctx context.Context, val float64, labels ...Label) {
	h.histogram.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

func toAttributes(labels []Label) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for _, l := range labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	return attrs
}
