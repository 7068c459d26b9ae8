// Package apiclient 提供弹性上游客户端，是所有第三方数据访问的唯一通道。
//
// 每次 Fetch 按固定顺序编排缓存、熔断、配额与重试：
//
//  1. 先查缓存，未过期命中直接返回，不触碰熔断与配额；
//  2. 熔断打开时不发起网络调用，存在陈旧缓存则降级返回，
//     否则返回 circuit_open 错误；
//  3. 配额预约失败时同样优先返回陈旧缓存，否则返回 quota_exceeded；
//  4. 发起网络调用，传输层错误与 5xx 在客户端内部按指数退避加
//     抖动重试，重试耗尽只向熔断器记一次失败；
//  5. 成功后按档位写入缓存并返回；4xx 不重试、不降级，直接报错；
//  6. 重试耗尽后若有陈旧缓存则降级返回，否则返回 upstream_unavailable。
//
// 调用方只会看到最终结果：成功、带 stale 标记的降级成功、或
// 错误码齐备的失败，单次重试的中间错误不会越过本层边界。
//
// ## 基本使用
//
//	client, _ := apiclient.New(&apiclient.Config{
//	    Upstreams: map[string]*apiclient.UpstreamConfig{
//	        "legiscan": {BaseURL: "https://api.legiscan.com", APIKey: key},
//	    },
//	}, store, quotas, brk, apiclient.WithLogger(logger))
//
//	result, err := client.Fetch(ctx, &apiclient.RequestSpec{
//	    Upstream: "legiscan",
//	    Path:     "/bills",
//	    Query:    url.Values{"state": {"CA"}},
//	    Tier:     cache.TierStandard,
//	})
//	if result != nil && result.Stale {
//	    // 展示"最近一次已知数据"提示
//	}
package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicpulse/civicpulse/breaker"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/quota"
	"github.com/civicpulse/civicpulse/xerrors"
)

// RequestSpec 描述一次上游请求
type RequestSpec struct {
	// Upstream 上游标识，必须在 Config.Upstreams 中注册
	Upstream string

	// Path 相对于上游 BaseURL 的请求路径
	Path string

	// Query 查询参数；缓存键由 Upstream + Path + 规范化后的 Query
	// 派生，API Key 由客户端注入，不参与缓存键
	Query url.Values

	// Tier 成功结果的缓存档位（零值为 Volatile）
	Tier cache.Tier

	// TTL 显式缓存 TTL，非零时覆盖档位默认值
	TTL time.Duration
}

// Result 一次 Fetch 的结果
type Result struct {
	// Data 上游返回的原始响应体
	Data []byte

	// Stale 数据来自逻辑过期的缓存副本（熔断、配额或重试耗尽
	// 时的降级路径），调用方应据此展示"最近一次已知数据"
	Stale bool

	// FromCache 数据来自缓存（含陈旧副本），未发起网络调用
	FromCache bool
}

// Client 弹性上游客户端核心接口
type Client interface {
	// Fetch 执行一次上游数据获取，见包文档中的编排顺序
	Fetch(ctx context.Context, spec *RequestSpec) (*Result, error)
}

// UpstreamConfig 单个上游的连接配置
type UpstreamConfig struct {
	// BaseURL [必填] 上游基础地址，如 "https://api.legiscan.com"
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey 上游 API 密钥，以查询参数形式注入
	APIKey string `json:"api_key" yaml:"api_key" mapstructure:"api_key"`

	// APIKeyParam 密钥查询参数名（默认 "key"）
	APIKeyParam string `json:"api_key_param" yaml:"api_key_param" mapstructure:"api_key_param"`

	// Timeout 单次网络尝试的超时（默认 10s），超时计为一次失败
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RatePerSecond 客户端侧请求平滑速率（0 表示不限制）。
	// 这是礼貌性平滑，配额预算仍由 quota 组件负责。
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// Burst 平滑速率允许的突发量（默认 1）
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// RetryConfig 重试策略配置
type RetryConfig struct {
	// MaxRetries 首次尝试之外的最大重试次数（默认 3）
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Base 首次重试前的基础等待（默认 200ms），随后按 2 倍增长
	Base time.Duration `json:"base" yaml:"base" mapstructure:"base"`

	// MaxDelay 单次等待上限（默认 30s），限定最坏情况延迟
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// Config 弹性客户端配置
type Config struct {
	// Upstreams 按标识注册的上游
	Upstreams map[string]*UpstreamConfig `json:"upstreams" yaml:"upstreams" mapstructure:"upstreams"`

	// Retry 重试策略
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.Base == 0 {
		c.Retry.Base = 200 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	for _, u := range c.Upstreams {
		if u.APIKeyParam == "" {
			u.APIKeyParam = "key"
		}
		if u.Timeout == 0 {
			u.Timeout = 10 * time.Second
		}
		if u.Burst == 0 {
			u.Burst = 1
		}
	}
}

// validate 校验配置
func (c *Config) validate() error {
	for name, u := range c.Upstreams {
		if u.BaseURL == "" {
			return xerrors.Wrapf(ErrInvalidSpec, "upstream %s: base_url is required", name)
		}
		if _, err := url.Parse(u.BaseURL); err != nil {
			return xerrors.Wrapf(ErrInvalidSpec, "upstream %s: invalid base_url", name)
		}
	}
	return nil
}

// New 创建弹性上游客户端
//
// store、quotas、brk 为必备依赖：缓存是降级数据的唯一来源，
// 配额与熔断决定是否允许发起网络调用。
func New(cfg *Config, store cache.Cache, quotas quota.Tracker, brk breaker.Breaker, opts ...Option) (Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil || quotas == nil || brk == nil {
		return nil, xerrors.New("apiclient: cache, quota tracker and breaker are required")
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = clog.Discard()
	}
	httpClient := opt.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiters := make(map[string]*rate.Limiter, len(cfg.Upstreams))
	for name, u := range cfg.Upstreams {
		if u.RatePerSecond > 0 {
			limiters[name] = rate.NewLimiter(rate.Limit(u.RatePerSecond), u.Burst)
		}
	}

	return &client{
		cfg:        cfg,
		store:      store,
		quotas:     quotas,
		brk:        brk,
		httpClient: httpClient,
		limiters:   limiters,
		logger:     opt.Logger,
		metrics:    newClientMetrics(opt.Meter),
	}, nil
}
