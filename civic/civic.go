// Package civic 提供法案、委员会与议员数据的领域适配器。
//
// 适配器是弹性客户端之上的薄层：构造请求、把上游载荷规范化为固定
// 结构体，并执行档位策略（法案状态走 Standard 档，议员名册走
// Durable 档）。缺失必填字段的载荷直接拒绝，绝不静默补齐。
//
// 选区范围查询只读消费 district.Assignment，用主选区圈定
// "你的代表"与"你选区的法案"。
package civic

import (
	"github.com/go-playground/validator/v10"

	"github.com/civicpulse/civicpulse/apiclient"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/xerrors"
)

// Bill 规范化后的法案
type Bill struct {
	ID         string `json:"bill_id" validate:"required"`
	State      string `json:"state" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Status     string `json:"status"`
	LastAction string `json:"last_action"`
	District   int    `json:"district"`
}

// Committee 规范化后的委员会
type Committee struct {
	ID      string `json:"committee_id" validate:"required"`
	Chamber string `json:"chamber" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// Representative 规范化后的议员
type Representative struct {
	ID       string `json:"people_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Party    string `json:"party"`
	Chamber  string `json:"chamber"`
	District int    `json:"district"`
}

// Config 领域适配器配置
type Config struct {
	// State 两字母州代码，作为立法数据查询的默认范围
	State string `json:"state" yaml:"state" mapstructure:"state"`

	// LegislativeUpstream 立法数据上游标识（默认 "legiscan"）
	LegislativeUpstream string `json:"legislative_upstream" yaml:"legislative_upstream" mapstructure:"legislative_upstream"`

	// CongressUpstream 国会数据上游标识（默认 "congress"）
	CongressUpstream string `json:"congress_upstream" yaml:"congress_upstream" mapstructure:"congress_upstream"`
}

// setDefaults 填充配置默认值
func (c *Config) setDefaults() {
	if c.LegislativeUpstream == "" {
		c.LegislativeUpstream = "legiscan"
	}
	if c.CongressUpstream == "" {
		c.CongressUpstream = "congress"
	}
}

// New 创建领域适配器服务
func New(cfg *Config, client apiclient.Client, opts ...Option) (Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if client == nil {
		return nil, xerrors.New("civic: api client is required")
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = clog.Discard()
	}

	return &service{
		cfg:      cfg,
		client:   client,
		logger:   opt.Logger,
		validate: validator.New(),
	}, nil
}
