package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/civicpulse/breaker"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/quota"
	"github.com/civicpulse/civicpulse/testkit"
	"github.com/civicpulse/civicpulse/xerrors"
)

type deps struct {
	store  cache.Cache
	quotas quota.Tracker
	brk    breaker.Breaker
}

func newDeps(t *testing.T, quotaCfg *quota.Config, brkCfg *breaker.Config) *deps {
	t.Helper()

	store, err := cache.New(&cache.Config{StaleRetention: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if quotaCfg == nil {
		quotaCfg = &quota.Config{}
	}
	quotas, err := quota.New(quotaCfg)
	require.NoError(t, err)

	if brkCfg == nil {
		brkCfg = &breaker.Config{FailureThreshold: 100, Cooldown: time.Minute}
	}
	brk, err := breaker.New(brkCfg)
	require.NoError(t, err)

	return &deps{store: store, quotas: quotas, brk: brk}
}

func newClient(t *testing.T, d *deps, baseURL string) Client {
	t.Helper()
	c, err := New(&Config{
		Upstreams: map[string]*UpstreamConfig{
			"legiscan": {BaseURL: baseURL, APIKey: "test-key", Timeout: 2 * time.Second},
		},
		Retry: RetryConfig{MaxRetries: 2, Base: time.Millisecond, MaxDelay: 10 * time.Millisecond},
	}, d.store, d.quotas, d.brk, WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	return c
}

func billsSpec() *RequestSpec {
	return &RequestSpec{
		Upstream: "legiscan",
		Path:     "/bills",
		Query:    url.Values{"state": {"CA"}},
		Tier:     cache.TierStandard,
	}
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("成功获取并写入缓存", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.OK(`{"bills":[1]}`))
		c := newClient(t, newDeps(t, nil, nil), up.URL())

		result, err := c.Fetch(ctx, billsSpec())
		require.NoError(t, err)
		assert.Equal(t, `{"bills":[1]}`, string(result.Data))
		assert.False(t, result.Stale)
		assert.False(t, result.FromCache)

		// 第二次命中缓存，不再发起网络调用
		result, err = c.Fetch(ctx, billsSpec())
		require.NoError(t, err)
		assert.True(t, result.FromCache)
		assert.False(t, result.Stale)
		assert.Equal(t, 1, up.Calls())
	})

	t.Run("5xx 重试后成功", func(t *testing.T) {
		up := testkit.NewUpstream(t,
			testkit.Fail(http.StatusInternalServerError),
			testkit.Fail(http.StatusBadGateway),
			testkit.OK(`{"ok":true}`),
		)
		c := newClient(t, newDeps(t, nil, nil), up.URL())

		result, err := c.Fetch(ctx, billsSpec())
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(result.Data))
		assert.Equal(t, 3, up.Calls())
	})

	t.Run("4xx 不重试不降级", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.Fail(http.StatusNotFound))
		c := newClient(t, newDeps(t, nil, nil), up.URL())

		_, err := c.Fetch(ctx, billsSpec())
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))
		assert.Equal(t, 1, up.Calls())
	})

	t.Run("重试耗尽返回 upstream_unavailable", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.Fail(http.StatusInternalServerError))
		c := newClient(t, newDeps(t, nil, nil), up.URL())

		_, err := c.Fetch(ctx, billsSpec())
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeUpstreamUnavailable, xerrors.GetCode(err))
		assert.Equal(t, 3, up.Calls())
	})

	t.Run("重试耗尽但有陈旧缓存时降级", func(t *testing.T) {
		up := testkit.NewUpstream(t,
			testkit.OK(`{"bills":[1]}`),
			testkit.Fail(http.StatusInternalServerError),
		)
		c := newClient(t, newDeps(t, nil, nil), up.URL())

		spec := billsSpec()
		spec.TTL = 10 * time.Millisecond

		_, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)

		result, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		assert.True(t, result.Stale)
		assert.True(t, result.FromCache)
		assert.Equal(t, `{"bills":[1]}`, string(result.Data))
	})

	t.Run("非法请求描述", func(t *testing.T) {
		c := newClient(t, newDeps(t, nil, nil), "http://127.0.0.1:1")

		_, err := c.Fetch(ctx, nil)
		assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))

		_, err = c.Fetch(ctx, &RequestSpec{Upstream: "unknown", Path: "/x"})
		assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))
	})
}

func TestFetchBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("熔断打开后请求被短路", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.Fail(http.StatusInternalServerError))
		d := newDeps(t, nil, &breaker.Config{FailureThreshold: 1, Cooldown: time.Minute})
		c := newClient(t, d, up.URL())

		// 一次逻辑请求（内部重试多次）只记一次失败，阈值 1 即熔断
		_, err := c.Fetch(ctx, billsSpec())
		require.Error(t, err)
		calls := up.Calls()
		assert.Equal(t, breaker.StateOpen, d.brk.State("legiscan"))

		// 熔断中不再发起网络调用，也不消耗配额
		_, err = c.Fetch(ctx, billsSpec())
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeCircuitOpen, xerrors.GetCode(err))
		assert.Equal(t, calls, up.Calls())
		assert.Equal(t, 1, d.quotas.Usage("legiscan").Used)
	})

	t.Run("熔断打开时降级到陈旧缓存", func(t *testing.T) {
		up := testkit.NewUpstream(t,
			testkit.OK(`{"bills":[1]}`),
			testkit.Fail(http.StatusInternalServerError),
		)
		d := newDeps(t, nil, &breaker.Config{FailureThreshold: 1, Cooldown: time.Minute})
		c := newClient(t, d, up.URL())

		spec := billsSpec()
		spec.TTL = 10 * time.Millisecond

		_, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)

		// 触发熔断（降级成功，但熔断器已记一次失败）
		result, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		assert.True(t, result.Stale)
		require.Equal(t, breaker.StateOpen, d.brk.State("legiscan"))

		// 熔断中依旧可以拿到陈旧数据
		calls := up.Calls()
		result, err = c.Fetch(ctx, spec)
		require.NoError(t, err)
		assert.True(t, result.Stale)
		assert.Equal(t, `{"bills":[1]}`, string(result.Data))
		assert.Equal(t, calls, up.Calls())
	})
}

func TestFetchQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("配额耗尽且无缓存时报错", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.OK(`{}`))
		d := newDeps(t, &quota.Config{Default: quota.Budget{Calls: 1, Window: time.Hour}}, nil)
		c := newClient(t, d, up.URL())

		_, err := c.Fetch(ctx, billsSpec())
		require.NoError(t, err)

		other := billsSpec()
		other.Query = url.Values{"state": {"NY"}}
		_, err = c.Fetch(ctx, other)
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeQuotaExceeded, xerrors.GetCode(err))
		assert.Equal(t, 1, up.Calls())
	})

	t.Run("配额耗尽时返回陈旧缓存", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.OK(`{"bills":[1]}`))
		d := newDeps(t, &quota.Config{Default: quota.Budget{Calls: 1, Window: time.Hour}}, nil)
		c := newClient(t, d, up.URL())

		spec := billsSpec()
		spec.TTL = 10 * time.Millisecond

		_, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)

		result, err := c.Fetch(ctx, spec)
		require.NoError(t, err)
		assert.True(t, result.Stale)
		assert.Equal(t, `{"bills":[1]}`, string(result.Data))
		assert.Equal(t, 1, up.Calls())
	})

	t.Run("缓存命中不消耗配额", func(t *testing.T) {
		up := testkit.NewUpstream(t, testkit.OK(`{}`))
		d := newDeps(t, &quota.Config{Default: quota.Budget{Calls: 10, Window: time.Hour}}, nil)
		c := newClient(t, d, up.URL())

		for i := 0; i < 5; i++ {
			_, err := c.Fetch(ctx, billsSpec())
			require.NoError(t, err)
		}
		assert.Equal(t, 1, d.quotas.Usage("legiscan").Used)
	})
}

func TestRetryDelayBound(t *testing.T) {
	// base=20ms, 2 次重试：总退避不超过 20ms*(1+2)*1.2 加请求本身的开销
	ctx := context.Background()
	up := testkit.NewUpstream(t, testkit.Fail(http.StatusInternalServerError))
	d := newDeps(t, nil, nil)

	c, err := New(&Config{
		Upstreams: map[string]*UpstreamConfig{
			"legiscan": {BaseURL: up.URL(), Timeout: 2 * time.Second},
		},
		Retry: RetryConfig{MaxRetries: 2, Base: 20 * time.Millisecond, MaxDelay: time.Second},
	}, d.store, d.quotas, d.brk)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Fetch(ctx, billsSpec())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 3, up.Calls())
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestCacheKey(t *testing.T) {
	t.Run("查询参数规范化后键稳定", func(t *testing.T) {
		a := cacheKey(&RequestSpec{
			Upstream: "legiscan", Path: "/bills",
			Query: url.Values{"state": {"CA"}, "page": {"1"}},
		})
		b := cacheKey(&RequestSpec{
			Upstream: "legiscan", Path: "/bills",
			Query: url.Values{"page": {"1"}, "state": {"CA"}},
		})
		assert.Equal(t, a, b)
		assert.Equal(t, "legiscan:/bills?page=1&state=CA", a)
	})

	t.Run("不同上游不冲突", func(t *testing.T) {
		a := cacheKey(&RequestSpec{Upstream: "legiscan", Path: "/bills"})
		b := cacheKey(&RequestSpec{Upstream: "congress", Path: "/bills"})
		assert.NotEqual(t, a, b)
	})
}
