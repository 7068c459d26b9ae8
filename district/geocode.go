package district

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/civicpulse/civicpulse/apiclient"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/xerrors"
)

// 选区层级
const (
	LevelAssembly      = "assembly"
	LevelSenate        = "senate"
	LevelCongressional = "congressional"
)

// levelOrder 层级的固定遍历顺序，保证 Secondary 列表次序确定
var levelOrder = []string{LevelAssembly, LevelSenate, LevelCongressional}

// Point 经纬度坐标
type Point struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lng float64 `json:"lng" yaml:"lng" mapstructure:"lng"`
}

// Boundary 单个选区的边界数据
type Boundary struct {
	// Level 选区层级 (assembly/senate/congressional)
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Number 选区编号
	Number int `json:"number" yaml:"number" mapstructure:"number"`

	// Population 选区内与 ZIP 重叠区域的人口规模，主选区裁决依据
	Population int `json:"population" yaml:"population" mapstructure:"population"`

	// Polygon 边界多边形顶点，按顺序闭合
	Polygon []Point `json:"polygon" yaml:"polygon" mapstructure:"polygon"`
}

// errGeocodeUnavailable 第二级不可用（无客户端、无边界数据或上游失败）
var errGeocodeUnavailable = xerrors.New("district: geocode tier unavailable")

// geocoder 第二级解析：地理编码加边界求交
type geocoder struct {
	client     apiclient.Client
	upstream   string
	path       string
	boundaries map[string][]Boundary
	validate   *validator.Validate
}

func newGeocoder(cfg *Config, client apiclient.Client) *geocoder {
	byLevel := make(map[string][]Boundary)
	for _, b := range cfg.Boundaries {
		byLevel[b.Level] = append(byLevel[b.Level], b)
	}
	return &geocoder{
		client:     client,
		upstream:   cfg.GeocodeUpstream,
		path:       cfg.GeocodePath,
		boundaries: byLevel,
		validate:   validator.New(),
	}
}

// geocodeResponse 地理编码上游的响应，缺失必填字段的载荷直接拒绝
type geocodeResponse struct {
	Results []geocodeResult `json:"results" validate:"required,min=1,dive"`
}

type geocodeResult struct {
	Location Point `json:"location" validate:"required"`
}

// resolve 尝试通过地理编码得到 Medium 精度的选区组合
func (g *geocoder) resolve(ctx context.Context, zip string) (*Assignment, error) {
	if g.client == nil || len(g.boundaries) == 0 {
		return nil, errGeocodeUnavailable
	}

	result, err := g.client.Fetch(ctx, &apiclient.RequestSpec{
		Upstream: g.upstream,
		Path:     g.path,
		Query:    url.Values{"postal_code": {zip}},
		Tier:     cache.TierDurable,
	})
	if err != nil {
		return nil, xerrors.Wrap(errGeocodeUnavailable, err.Error())
	}

	var resp geocodeResponse
	if err := json.Unmarshal(result.Data, &resp); err != nil {
		return nil, xerrors.Wrap(errGeocodeUnavailable, "malformed geocode payload")
	}
	if err := g.validate.Struct(&resp); err != nil {
		return nil, xerrors.Wrap(errGeocodeUnavailable, "geocode payload missing required fields")
	}

	point := resp.Results[0].Location
	candidates := make(map[string][]Boundary, len(levelOrder))
	for _, level := range levelOrder {
		for _, b := range g.boundaries[level] {
			if containsPoint(b.Polygon, point) {
				candidates[level] = append(candidates[level], b)
			}
		}
		if len(candidates[level]) == 0 {
			// 该层级没有任何边界包含质心，求交失败
			return nil, errGeocodeUnavailable
		}
		sortCandidates(candidates[level])
	}

	assignment := &Assignment{
		ZIP:      zip,
		Accuracy: AccuracyMedium,
		Primary: Districts{
			Assembly:      candidates[LevelAssembly][0].Number,
			Senate:        candidates[LevelSenate][0].Number,
			Congressional: candidates[LevelCongressional][0].Number,
		},
	}

	// 跨选区 ZIP：每个落选候选产生一条 Secondary，层级与候选次序
	// 都是固定的，重复调用得到完全相同的划分
	for _, level := range levelOrder {
		for _, b := range candidates[level][1:] {
			alt := assignment.Primary
			switch level {
			case LevelAssembly:
				alt.Assembly = b.Number
			case LevelSenate:
				alt.Senate = b.Number
			case LevelCongressional:
				alt.Congressional = b.Number
			}
			assignment.Secondary = append(assignment.Secondary, alt)
		}
	}

	return assignment, nil
}

// sortCandidates 主选区裁决规则：人口份额大者优先，相同时编号小者优先
func sortCandidates(cands []Boundary) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Population != cands[j].Population {
			return cands[i].Population > cands[j].Population
		}
		return cands[i].Number < cands[j].Number
	})
}

// containsPoint 射线法判断点是否落在多边形内
func containsPoint(polygon []Point, p Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) {
			intersect := (pj.Lng-pi.Lng)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat) + pi.Lng
			if p.Lng < intersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
