package district

import "strconv"

// ZipRange ZIP 数字区间到选区组合的启发式映射。
// 邮编前缀按地理分配，相邻号段大概率落在同一批选区内，
// 这是地理编码不可用时的最后依据。
type ZipRange struct {
	// From 区间起始 ZIP（含）
	From string `json:"from" yaml:"from" mapstructure:"from"`

	// To 区间结束 ZIP（含）
	To string `json:"to" yaml:"to" mapstructure:"to"`

	Districts `mapstructure:",squash"`
}

// 无任何区间数据时的合成参数：各层级的选区总数取全国常见规模，
// 保证对任意合法 ZIP 都能给出一个确定的组合
const (
	fallbackAssemblySeats      = 80
	fallbackSenateSeats        = 40
	fallbackCongressionalSeats = 52
)

// resolveHeuristic 第三级解析，对合法 ZIP 永不失败
func resolveHeuristic(zip string, ranges []ZipRange) *Assignment {
	n, _ := strconv.Atoi(zip)

	// 命中配置的号段区间
	for _, r := range ranges {
		from, errFrom := strconv.Atoi(r.From)
		to, errTo := strconv.Atoi(r.To)
		if errFrom != nil || errTo != nil {
			continue
		}
		if n >= from && n <= to {
			return &Assignment{ZIP: zip, Primary: r.Districts, Accuracy: AccuracyLow}
		}
	}

	// 未命中任何区间时取数字距离最近的区间中点，距离相同取靠前的区间
	if len(ranges) > 0 {
		best := -1
		bestDist := 0
		for i, r := range ranges {
			from, errFrom := strconv.Atoi(r.From)
			to, errTo := strconv.Atoi(r.To)
			if errFrom != nil || errTo != nil {
				continue
			}
			mid := (from + to) / 2
			dist := n - mid
			if dist < 0 {
				dist = -dist
			}
			if best == -1 || dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		if best >= 0 {
			return &Assignment{ZIP: zip, Primary: ranges[best].Districts, Accuracy: AccuracyLow}
		}
	}

	// 完全没有区间数据：从 ZIP 数值合成一个稳定的组合
	return &Assignment{
		ZIP: zip,
		Primary: Districts{
			Assembly:      n%fallbackAssemblySeats + 1,
			Senate:        n%fallbackSenateSeats + 1,
			Congressional: n%fallbackCongressionalSeats + 1,
		},
		Accuracy: AccuracyLow,
	}
}
