package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/civicpulse/civicpulse/cache/serializer"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/metrics"
	"github.com/civicpulse/civicpulse/xerrors"
)

// maxRetention 物理保留的兜底上限，避免 otter 过期时间溢出
const maxRetention = 24 * 365 * 100 * time.Hour

type standaloneCache struct {
	cache          *otter.Cache[string, *envelope]
	serializer     serializer.Serializer
	prefix         string
	tiers          TierTTL
	staleRetention time.Duration
	logger         clog.Logger
	metrics        *cacheMetrics
}

// newStandalone 创建单机内存缓存实例
func newStandalone(cfg *Config, logger clog.Logger, meter metrics.Meter) (Cache, error) {
	sc := cfg.Standalone
	if sc == nil {
		sc = &StandaloneConfig{}
	}
	capacity := sc.Capacity
	if capacity <= 0 {
		capacity = 10000
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrap(err, "cache: build serializer")
	}

	// 使用写入过期策略（与 Redis TTL 语义一致）：
	// - 物理过期从写入开始计算，读取不会重置
	// - 具体时长在 Set 时通过 SetExpiresAfter 覆盖为 逻辑 TTL + 陈旧保留期
	// 容量驱逐由 MaximumSize 控制，按近期最少使用优先淘汰。
	opts := &otter.Options[string, *envelope]{
		MaximumSize:      capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, *envelope](maxRetention),
	}

	c, err := otter.New(opts)
	if err != nil {
		return nil, xerrors.Wrap(err, "cache: build otter cache")
	}

	return &standaloneCache{
		cache:          c,
		serializer:     s,
		prefix:         cfg.Prefix,
		tiers:          cfg.Tiers,
		staleRetention: cfg.StaleRetention,
		logger:         logger,
		metrics:        newCacheMetrics(meter, "standalone"),
	}, nil
}

func (c *standaloneCache) key(key string) string {
	return c.prefix + key
}

func (c *standaloneCache) Set(ctx context.Context, key string, value any, tier Tier) error {
	return c.SetWithTTL(ctx, key, value, c.tiers.ttlFor(tier))
}

func (c *standaloneCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return xerrors.New("cache: ttl must be positive")
	}

	payload, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrap(err, "cache: marshal value")
	}

	k := c.key(key)
	c.cache.Set(k, &envelope{
		Payload:  payload,
		StoredAt: time.Now(),
		TTL:      ttl,
	})
	c.cache.SetExpiresAfter(k, c.retention(ttl))
	return nil
}

// retention 物理保留时长：逻辑 TTL 加上陈旧副本保留期
func (c *standaloneCache) retention(ttl time.Duration) time.Duration {
	r := ttl + c.staleRetention
	if r <= 0 || r > maxRetention {
		return maxRetention
	}
	return r
}

func (c *standaloneCache) Get(ctx context.Context, key string, dest any) error {
	env, ok := c.cache.GetIfPresent(c.key(key))
	if !ok || env.expired(time.Now()) {
		c.metrics.miss(ctx)
		return ErrMiss
	}
	c.metrics.hit(ctx)
	return c.serializer.Unmarshal(env.Payload, dest)
}

func (c *standaloneCache) GetStale(ctx context.Context, key string, dest any) (bool, error) {
	env, ok := c.cache.GetIfPresent(c.key(key))
	if !ok {
		c.metrics.miss(ctx)
		return false, ErrMiss
	}

	stale := env.expired(time.Now())
	if stale {
		c.metrics.staleHit(ctx)
	} else {
		c.metrics.hit(ctx)
	}
	if err := c.serializer.Unmarshal(env.Payload, dest); err != nil {
		return false, err
	}
	return stale, nil
}

func (c *standaloneCache) Invalidate(ctx context.Context, key string) error {
	c.cache.Invalidate(c.key(key))
	return nil
}

func (c *standaloneCache) Close() error {
	c.cache.StopAllGoroutines()
	return nil
}
