package breaker

import (
	"context"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
	"github.com/civicpulse/civicpulse/xerrors"
)

// Metrics 指标常量定义
const (
	// MetricStateChanges 状态迁移次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"

	// MetricShortCircuits 被短路的请求数 (Counter)
	MetricShortCircuits = "breaker_short_circuits_total"

	// LabelUpstream 上游标识标签
	LabelUpstream = "upstream"

	// LabelState 目标状态标签
	LabelState = "state"
)

// circuitBreaker 熔断器实现（非导出）
type circuitBreaker struct {
	cfg    *Config
	logger clog.Logger

	stateChanges  metrics.Counter
	shortCircuits metrics.Counter

	// 上游级熔断器管理
	breakers sync.Map // map[string]*gobreaker.CircuitBreaker[any]
}

// newBreaker 创建熔断器实例（内部函数）
// 注意：cfg 已在 New() 中填充默认值
func newBreaker(cfg *Config, logger clog.Logger, meter metrics.Meter) *circuitBreaker {
	cb := &circuitBreaker{
		cfg:    cfg,
		logger: logger,
	}
	if meter != nil {
		cb.stateChanges, _ = meter.Counter(MetricStateChanges, "breaker state transitions")
		cb.shortCircuits, _ = meter.Counter(MetricShortCircuits, "requests rejected while open")
	}

	logger.Info("circuit breaker created",
		clog.Int("failure_threshold", int(cfg.FailureThreshold)),
		clog.Duration("cooldown", cfg.Cooldown),
		clog.Duration("interval", cfg.Interval),
		clog.Int("half_open_probes", int(cfg.HalfOpenProbes)))

	return cb
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(upstream string, fn func() (any, error)) (any, error) {
	brk := cb.getOrCreateBreaker(upstream)

	result, err := brk.Execute(fn)

	// ErrTooManyRequests 表示半开探测额度已用完，对调用方等同于熔断中
	if err != nil && (xerrors.Is(err, gobreaker.ErrOpenState) || xerrors.Is(err, gobreaker.ErrTooManyRequests)) {
		if cb.shortCircuits != nil {
			cb.shortCircuits.Inc(context.Background(), metrics.L(LabelUpstream, upstream))
		}
		return nil, ErrOpenState
	}

	return result, err
}

// State 获取指定上游的熔断器状态
func (cb *circuitBreaker) State(upstream string) State {
	val, ok := cb.breakers.Load(upstream)
	if !ok {
		return StateClosed
	}

	switch val.(*gobreaker.CircuitBreaker[any]).State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// getOrCreateBreaker 获取或创建指定上游的熔断器
func (cb *circuitBreaker) getOrCreateBreaker(upstream string) *gobreaker.CircuitBreaker[any] {
	val, ok := cb.breakers.Load(upstream)
	if ok {
		return val.(*gobreaker.CircuitBreaker[any])
	}

	settings := gobreaker.Settings{
		Name:        upstream,
		MaxRequests: cb.cfg.HalfOpenProbes,
		Interval:    cb.cfg.Interval,
		Timeout:     cb.cfg.Cooldown,
		ReadyToTrip: cb.readyToTrip,
		// 调用方取消不是上游故障，不推进失败计数
		IsSuccessful: func(err error) bool {
			return err == nil || xerrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cb.onStateChange(name, from, to)
		},
	}

	brk := gobreaker.NewCircuitBreaker[any](settings)

	// 可能有并发创建，使用 LoadOrStore
	actual, _ := cb.breakers.LoadOrStore(upstream, brk)
	return actual.(*gobreaker.CircuitBreaker[any])
}

// readyToTrip 连续失败达到阈值即熔断
func (cb *circuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	return counts.ConsecutiveFailures >= cb.cfg.FailureThreshold
}

// onStateChange 状态变更回调
func (cb *circuitBreaker) onStateChange(name string, from gobreaker.State, to gobreaker.State) {
	cb.logger.Info("circuit breaker state changed",
		clog.String("upstream", name),
		clog.String("from", stateToString(from)),
		clog.String("to", stateToString(to)))

	if cb.stateChanges != nil {
		cb.stateChanges.Inc(context.Background(),
			metrics.L(LabelUpstream, name),
			metrics.L(LabelState, stateToString(to)))
	}
}

// stateToString 将 gobreaker.State 转换为字符串
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half_open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
