package cache

import "time"

// Tier 缓存档位，按数据波动性决定默认 TTL
type Tier int

const (
	// TierVolatile 分钟级：易变数据（低置信度的选区解析结果等）
	TierVolatile Tier = iota
	// TierStandard 小时级：常规数据（法案状态、委员会排期等）
	TierStandard
	// TierDurable 天级：稳定数据（议员名册、静态选区映射等）
	TierDurable
)

// String 返回档位的字符串表示
func (t Tier) String() string {
	switch t {
	case TierVolatile:
		return "volatile"
	case TierStandard:
		return "standard"
	case TierDurable:
		return "durable"
	default:
		return "unknown"
	}
}

// TierTTL 各档位的默认 TTL 配置
type TierTTL struct {
	Volatile time.Duration `json:"volatile" yaml:"volatile" mapstructure:"volatile"`
	Standard time.Duration `json:"standard" yaml:"standard" mapstructure:"standard"`
	Durable  time.Duration `json:"durable" yaml:"durable" mapstructure:"durable"`
}

// setDefaults 填充内置默认值：分钟 / 小时 / 天
func (t *TierTTL) setDefaults() {
	if t.Volatile == 0 {
		t.Volatile = 5 * time.Minute
	}
	if t.Standard == 0 {
		t.Standard = 4 * time.Hour
	}
	if t.Durable == 0 {
		t.Durable = 24 * time.Hour
	}
}

// ttlFor 返回指定档位的 TTL
func (t *TierTTL) ttlFor(tier Tier) time.Duration {
	switch tier {
	case TierVolatile:
		return t.Volatile
	case TierStandard:
		return t.Standard
	case TierDurable:
		return t.Durable
	default:
		return t.Standard
	}
}
