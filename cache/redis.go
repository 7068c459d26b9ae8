package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/civicpulse/cache/serializer"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/connector"
	"github.com/civicpulse/civicpulse/metrics"
	"github.com/civicpulse/civicpulse/xerrors"
)

type redisCache struct {
	client         *redis.Client
	serializer     serializer.Serializer
	prefix         string
	tiers          TierTTL
	staleRetention time.Duration
	logger         clog.Logger
	metrics        *cacheMetrics
}

// newRedis 创建分布式缓存实例
//
// Redis 中存储的是序列化后的 envelope，条目的物理 TTL 为
// 逻辑 TTL + 陈旧保留期，逻辑过期由读取方按 StoredAt 判断。
// 多实例共享同一份缓存，进程重启后陈旧副本依然可用。
func newRedis(cfg *Config, conn connector.RedisConnector, logger clog.Logger, meter metrics.Meter) (Cache, error) {
	client := conn.GetClient()
	if client == nil {
		return nil, xerrors.New("cache: redis connector is not connected")
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrap(err, "cache: build serializer")
	}

	return &redisCache{
		client:         client,
		serializer:     s,
		prefix:         cfg.Prefix,
		tiers:          cfg.Tiers,
		staleRetention: cfg.StaleRetention,
		logger:         logger,
		metrics:        newCacheMetrics(meter, "distributed"),
	}, nil
}

func (c *redisCache) key(key string) string {
	return c.prefix + key
}

func (c *redisCache) Set(ctx context.Context, key string, value any, tier Tier) error {
	return c.SetWithTTL(ctx, key, value, c.tiers.ttlFor(tier))
}

func (c *redisCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return xerrors.New("cache: ttl must be positive")
	}

	payload, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrap(err, "cache: marshal value")
	}

	data, err := c.serializer.Marshal(&envelope{
		Payload:  payload,
		StoredAt: time.Now(),
		TTL:      ttl,
	})
	if err != nil {
		return xerrors.Wrap(err, "cache: marshal envelope")
	}

	return c.client.Set(ctx, c.key(key), data, ttl+c.staleRetention).Err()
}

// load 读取并解码 envelope；物理缺失时返回 ErrMiss
func (c *redisCache) load(ctx context.Context, key string) (*envelope, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if xerrors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, xerrors.Wrap(err, "cache: redis get")
	}

	var env envelope
	if err := c.serializer.Unmarshal(data, &env); err != nil {
		return nil, xerrors.Wrap(err, "cache: unmarshal envelope")
	}
	return &env, nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	env, err := c.load(ctx, key)
	if err != nil {
		if IsMiss(err) {
			c.metrics.miss(ctx)
		}
		return err
	}
	if env.expired(time.Now()) {
		c.metrics.miss(ctx)
		return ErrMiss
	}
	c.metrics.hit(ctx)
	return c.serializer.Unmarshal(env.Payload, dest)
}

func (c *redisCache) GetStale(ctx context.Context, key string, dest any) (bool, error) {
	env, err := c.load(ctx, key)
	if err != nil {
		if IsMiss(err) {
			c.metrics.miss(ctx)
		}
		return false, err
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

func (c *redisCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisCache) Close() error {
	// 连接由 connector 持有，缓存组件不负责关闭
	return nil
}
