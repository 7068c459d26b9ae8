package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/civicpulse/civicpulse/breaker"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/quota"
	"github.com/civicpulse/civicpulse/xerrors"
)

type client struct {
	cfg        *Config
	store      cache.Cache
	quotas     quota.Tracker
	brk        breaker.Breaker
	httpClient *http.Client
	limiters   map[string]*rate.Limiter
	logger     clog.Logger
	metrics    *clientMetrics
}

// cacheKey 从请求描述派生缓存键。Query 经 Encode 规范化（按键排序），
// 同一逻辑请求总是命中同一条目。
func cacheKey(spec *RequestSpec) string {
	var b strings.Builder
	b.WriteString(spec.Upstream)
	b.WriteString(":")
	b.WriteString(spec.Path)
	if len(spec.Query) > 0 {
		b.WriteString("?")
		b.WriteString(spec.Query.Encode())
	}
	return b.String()
}

// statusError 非 2xx 响应
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

// retryable 5xx 与 429 视为瞬时故障，其余 4xx 不重试
func (e *statusError) retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

func (c *client) Fetch(ctx context.Context, spec *RequestSpec) (*Result, error) {
	if spec == nil || spec.Upstream == "" || spec.Path == "" {
		return nil, ErrInvalidSpec
	}
	upstream, ok := c.cfg.Upstreams[spec.Upstream]
	if !ok {
		return nil, xerrors.Wrapf(ErrInvalidSpec, "unknown upstream %q", spec.Upstream)
	}

	key := cacheKey(spec)
	reqID := uuid.NewString()
	log := c.logger.With(
		clog.String("request_id", reqID),
		clog.String("upstream", spec.Upstream),
		clog.String("key", key),
	)

	// 1. 缓存优先：未过期命中不触碰熔断与配额
	var cached []byte
	if err := c.store.Get(ctx, key, &cached); err == nil {
		c.metrics.fetch(ctx, spec.Upstream, "cache_hit")
		return &Result{Data: cached, FromCache: true}, nil
	}

	// 2. 熔断打开：不发起网络调用，优先降级到陈旧副本
	if c.brk.State(spec.Upstream) == breaker.StateOpen {
		log.WarnContext(ctx, "circuit open, skipping network call")
		return c.degrade(ctx, spec.Upstream, key, breaker.ErrOpenState, log)
	}

	// 3. 配额预约：失败同样优先降级
	if err := c.quotas.TryReserve(ctx, spec.Upstream); err != nil {
		return c.degrade(ctx, spec.Upstream, key, err, log)
	}

	// 客户端侧请求平滑，等待被取消时直接返回调用方的取消错误
	if lim := c.limiters[spec.Upstream]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// 4. 网络调用：整个重试循环在一次 Execute 内完成，
	// 一次逻辑请求无论内部重试多少次都只向熔断器记一次失败
	payload, err := c.brk.Execute(spec.Upstream, func() (any, error) {
		return c.fetchWithRetry(ctx, upstream, spec)
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return c.degrade(ctx, spec.Upstream, key, err, log)
		}
		if xerrors.Is(err, context.Canceled) {
			return nil, err
		}
		var se *statusError
		if xerrors.As(err, &se) && !se.retryable() {
			// 4xx：请求本身有问题，不降级
			c.metrics.fetch(ctx, spec.Upstream, "rejected")
			log.WarnContext(ctx, "upstream rejected request", clog.Int("status", se.status))
			return nil, xerrors.Wrapf(ErrInvalidSpec, "upstream %s status %d", spec.Upstream, se.status)
		}
		log.ErrorContext(ctx, "retries exhausted", clog.Error(err))
		return c.degrade(ctx, spec.Upstream, key,
			xerrors.Wrap(ErrUpstreamUnavailable, err.Error()), log)
	}

	// 5. 成功：按档位或显式 TTL 写入缓存。写入失败静默降级为
	// "未缓存"，不影响本次结果。
	data := payload.([]byte)
	var storeErr error
	if spec.TTL > 0 {
		storeErr = c.store.SetWithTTL(ctx, key, data, spec.TTL)
	} else {
		storeErr = c.store.Set(ctx, key, data, spec.Tier)
	}
	if storeErr != nil {
		log.WarnContext(ctx, "cache store failed", clog.Error(storeErr))
	}

	c.metrics.fetch(ctx, spec.Upstream, "network")
	return &Result{Data: data}, nil
}

// fetchWithRetry 带指数退避与抖动的网络调用循环
func (c *client) fetchWithRetry(ctx context.Context, upstream *UpstreamConfig, spec *RequestSpec) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.Retry.Base
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2
	bo.MaxInterval = c.cfg.Retry.MaxDelay

	return backoff.Retry(ctx, func() ([]byte, error) {
		data, err := c.doRequest(ctx, upstream, spec)
		if err != nil {
			var se *statusError
			if xerrors.As(err, &se) && !se.retryable() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return data, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(c.cfg.Retry.MaxRetries+1)))
}

// doRequest 单次 HTTP GET，携带每次尝试独立的超时
func (c *client) doRequest(ctx context.Context, upstream *UpstreamConfig, spec *RequestSpec) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, upstream.Timeout)
	defer cancel()

	u, err := url.Parse(upstream.BaseURL)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + spec.Path

	q := url.Values{}
	for k, vs := range spec.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if upstream.APIKey != "" {
		q.Set(upstream.APIKeyParam, upstream.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 调用方取消原样向上传递，不伪装成上游故障
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{status: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// degrade 降级路径：存在陈旧副本时返回带 stale 标记的结果，
// 否则把 cause 原样返回给调用方
func (c *client) degrade(ctx context.Context, upstream, key string, cause error, log clog.Logger) (*Result, error) {
	var cached []byte
	stale, err := c.store.GetStale(ctx, key, &cached)
	if err != nil {
		c.metrics.fetch(ctx, upstream, "error")
		return nil, cause
	}

	c.metrics.fetch(ctx, upstream, "stale")
	log.InfoContext(ctx, "serving cached fallback",
		clog.Bool("stale", stale),
		clog.String("cause", xerrors.GetCode(cause)),
	)
	return &Result{Data: cached, Stale: stale, FromCache: true}, nil
}
