// Package district 提供 ZIP 到立法选区的解析服务。
//
// 一个五位 ZIP 可能横跨多个选区（州众议院、州参议院、国会），解析
// 采用三级瀑布，只有前一级未命中时才尝试下一级：
//
//  1. 静态表：离线整理的 ZIP→选区精确映射，命中即 High 精度，
//     数据已消歧，无 Secondary；
//  2. 地理编码：通过弹性客户端调用地理编码上游取得 ZIP 质心，
//     再与选区边界多边形求交，得到 Medium 精度；
//  3. 启发式兜底：地理编码不可用（熔断、配额耗尽或无边界数据）
//     时按 ZIP 数字区间推断，Low 精度。
//
// 跨选区 ZIP 的主选区裁决是确定性的：人口份额最大的选区胜出，
// 份额相同时取编号最小者。相同输入数据下重复解析永远得到相同的
// Primary/Secondary 划分。
//
// 对格式合法的 ZIP，Resolve 永不返回错误：所有退化都表达为
// Accuracy 降级，保证上层总有选区可用来圈定查询范围。
package district

import (
	"context"

	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/xerrors"
)

// Accuracy 选区解析的精度等级
type Accuracy int

const (
	// AccuracyLow 启发式兜底结果，后续数据更新大概率会修正
	AccuracyLow Accuracy = iota
	// AccuracyMedium 地理编码加边界求交得到的结果
	AccuracyMedium
	// AccuracyHigh 静态表直接命中
	AccuracyHigh
)

// String 返回精度的字符串表示
func (a Accuracy) String() string {
	switch a {
	case AccuracyHigh:
		return "high"
	case AccuracyMedium:
		return "medium"
	case AccuracyLow:
		return "low"
	default:
		return "unknown"
	}
}

// Districts 一组三级选区编号
type Districts struct {
	Assembly      int `json:"assembly"`
	Senate        int `json:"senate"`
	Congressional int `json:"congressional"`
}

// Assignment 一次 ZIP 解析的完整结果
type Assignment struct {
	// ZIP 输入的五位邮编
	ZIP string `json:"zip"`

	// Primary 裁决出的主选区组合，用户界面上"你的代表"的唯一答案
	Primary Districts `json:"primary"`

	// Secondary 同样覆盖该 ZIP 但未被选为主选区的组合，可能为空
	Secondary []Districts `json:"secondary"`

	// Accuracy 本次解析的精度等级
	Accuracy Accuracy `json:"accuracy"`
}

// Resolver 选区解析器核心接口
type Resolver interface {
	// Resolve 解析 ZIP 对应的选区。仅当 zip 不是五位数字时返回
	// ErrInvalidZIP；格式合法的输入总是得到一个 Assignment。
	Resolve(ctx context.Context, zip string) (*Assignment, error)
}

// Config 选区解析器配置
type Config struct {
	// Static 静态 ZIP→选区映射（离线整理，已消歧）。
	// 可与 LoadStaticFromSQLite 的结果合并。
	Static []StaticEntry `json:"static" yaml:"static" mapstructure:"static"`

	// Boundaries 选区边界多边形数据，供地理编码结果求交
	Boundaries []Boundary `json:"boundaries" yaml:"boundaries" mapstructure:"boundaries"`

	// Ranges ZIP 数字区间启发式映射，兜底层数据源
	Ranges []ZipRange `json:"ranges" yaml:"ranges" mapstructure:"ranges"`

	// GeocodeUpstream 地理编码上游标识（默认 "geocodio"）
	GeocodeUpstream string `json:"geocode_upstream" yaml:"geocode_upstream" mapstructure:"geocode_upstream"`

	// GeocodePath 地理编码请求路径（默认 "/v1.7/geocode"）
	GeocodePath string `json:"geocode_path" yaml:"geocode_path" mapstructure:"geocode_path"`

	// CachePrefix 解析结果的缓存键前缀（默认 "district:"）
	CachePrefix string `json:"cache_prefix" yaml:"cache_prefix" mapstructure:"cache_prefix"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.GeocodeUpstream == "" {
		c.GeocodeUpstream = "geocodio"
	}
	if c.GeocodePath == "" {
		c.GeocodePath = "/v1.7/geocode"
	}
	if c.CachePrefix == "" {
		c.CachePrefix = "district:"
	}
}

// New 创建选区解析器
//
// 地理编码层需要通过 WithAPIClient 注入弹性客户端，缓存通过
// WithCache 注入；两者缺省时对应能力自动退化（无客户端则跳过
// 第二级，无缓存则每次都重新解析）。
func New(cfg *Config, opts ...Option) (Resolver, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = clog.Discard()
	}

	static := make(map[string]Districts, len(cfg.Static))
	for _, e := range cfg.Static {
		if !validZIP(e.ZIP) {
			return nil, xerrors.Wrapf(ErrInvalidZIP, "static entry %q", e.ZIP)
		}
		static[e.ZIP] = e.Districts
	}

	return &resolver{
		cfg:     cfg,
		static:  static,
		geo:     newGeocoder(cfg, opt.Client),
		ranges:  cfg.Ranges,
		store:   opt.Store,
		logger:  opt.Logger,
		metrics: newResolverMetrics(opt.Meter),
	}, nil
}
