package district

import (
	"context"

	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
)

// Metrics 指标常量定义
const (
	// MetricResolutions 解析次数 (Counter)，按 accuracy 标签区分
	MetricResolutions = "district_resolutions_total"

	// LabelAccuracy 精度标签 (high/medium/low/cached)
	LabelAccuracy = "accuracy"
)

// resolverMetrics 解析器指标集合（meter 为 nil 时全部为 no-op）
type resolverMetrics struct {
	resolutions metrics.Counter
}

func newResolverMetrics(meter metrics.Meter) *resolverMetrics {
	m := &resolverMetrics{}
	if meter == nil {
		return m
	}
	m.resolutions, _ = meter.Counter(MetricResolutions, "zip resolutions by accuracy")
	return m
}

func (m *resolverMetrics) resolved(ctx context.Context, accuracy string) {
	if m.resolutions != nil {
		m.resolutions.Inc(ctx, metrics.L(LabelAccuracy, accuracy))
	}
}

type resolver struct {
	cfg     *Config
	static  map[string]Districts
	geo     *geocoder
	ranges  []ZipRange
	store   cache.Cache
	logger  clog.Logger
	metrics *resolverMetrics
}

func (r *resolver) Resolve(ctx context.Context, zip string) (*Assignment, error) {
	if !validZIP(zip) {
		return nil, ErrInvalidZIP
	}

	key := r.cfg.CachePrefix + zip
	if r.store != nil {
		var cached Assignment
		if err := r.store.Get(ctx, key, &cached); err == nil {
			r.metrics.resolved(ctx, "cached")
			return &cached, nil
		}
	}

	assignment := r.lookup(ctx, zip)

	if r.store != nil {
		// 低精度结果更可能被后续数据更新修正，缓存周期更短。
		// 写入失败静默降级，不影响本次结果。
		tier := cache.TierStandard
		if assignment.Accuracy == AccuracyLow {
			tier = cache.TierVolatile
		}
		if err := r.store.Set(ctx, key, assignment, tier); err != nil {
			r.logger.WarnContext(ctx, "assignment cache store failed",
				clog.String("zip", zip), clog.Error(err))
		}
	}

	r.metrics.resolved(ctx, assignment.Accuracy.String())
	return assignment, nil
}

// lookup 三级瀑布，只有前一级未命中才尝试下一级
func (r *resolver) lookup(ctx context.Context, zip string) *Assignment {
	if d, ok := r.static[zip]; ok {
		return &Assignment{ZIP: zip, Primary: d, Accuracy: AccuracyHigh}
	}

	assignment, err := r.geo.resolve(ctx, zip)
	if err == nil {
		return assignment
	}

	r.logger.DebugContext(ctx, "geocode tier unavailable, using heuristic",
		clog.String("zip", zip), clog.Error(err))
	return resolveHeuristic(zip, r.ranges)
}
