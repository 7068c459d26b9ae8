package quota

import (
	"context"
	"sync"
	"time"

	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
)

// Metrics 指标常量定义
const (
	// MetricReservations 预约尝试数 (Counter)，按 outcome 标签区分
	MetricReservations = "quota_reservations_total"

	// LabelUpstream 上游标识标签
	LabelUpstream = "upstream"

	// LabelOutcome 预约结果标签 (allowed/rejected)
	LabelOutcome = "outcome"
)

// window 单个上游的固定窗口计数状态
type window struct {
	mu          sync.Mutex
	budget      Budget
	windowStart time.Time
	used        int
}

// rollover 窗口到期时归零计数并前移起点，调用方需持有 mu
func (w *window) rollover(now time.Time) {
	if now.Sub(w.windowStart) >= w.budget.Window {
		w.windowStart = now
		w.used = 0
	}
}

type tracker struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     *Config
	logger  clog.Logger
	resv    metrics.Counter

	// now 可在测试中替换以驱动窗口滚动
	now func() time.Time
}

func newTracker(cfg *Config, logger clog.Logger, meter metrics.Meter) *tracker {
	t := &tracker{
		windows: make(map[string]*window),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	if meter != nil {
		t.resv, _ = meter.Counter(MetricReservations, "quota reservation attempts")
	}
	return t
}

// budgetFor 返回上游的预算配置，未配置时回退到默认预算
func (t *tracker) budgetFor(upstream string) Budget {
	if b, ok := t.cfg.Budgets[upstream]; ok {
		return b
	}
	return t.cfg.Default
}

// windowFor 返回上游的窗口状态，首次访问时创建
func (t *tracker) windowFor(upstream string) *window {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[upstream]
	if !ok {
		w = &window{
			budget:      t.budgetFor(upstream),
			windowStart: t.now(),
		}
		t.windows[upstream] = w
	}
	return w
}

func (t *tracker) TryReserve(ctx context.Context, upstream string) error {
	w := t.windowFor(upstream)

	w.mu.Lock()
	defer w.mu.Unlock()

	// Calls == 0 表示不设限
	if w.budget.Calls <= 0 {
		return nil
	}

	now := t.now()
	w.rollover(now)

	if w.used >= w.budget.Calls {
		if t.resv != nil {
			t.resv.Inc(ctx, metrics.L(LabelUpstream, upstream), metrics.L(LabelOutcome, "rejected"))
		}
		t.logger.WarnContext(ctx, "quota exhausted",
			clog.String("upstream", upstream),
			clog.Int("used", w.used),
			clog.Int("budget", w.budget.Calls),
			clog.Time("resets_at", w.windowStart.Add(w.budget.Window)),
		)
		return ErrQuotaExceeded
	}

	w.used++
	if t.resv != nil {
		t.resv.Inc(ctx, metrics.L(LabelUpstream, upstream), metrics.L(LabelOutcome, "allowed"))
	}
	return nil
}

func (t *tracker) Usage(upstream string) Usage {
	w := t.windowFor(upstream)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rollover(t.now())
	return Usage{
		Used:     w.used,
		Budget:   w.budget.Calls,
		ResetsAt: w.windowStart.Add(w.budget.Window),
	}
}
