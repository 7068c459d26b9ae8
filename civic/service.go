package civic

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/civicpulse/civicpulse/apiclient"
	"github.com/civicpulse/civicpulse/cache"
	"github.com/civicpulse/civicpulse/clog"
	"github.com/civicpulse/civicpulse/district"
	"github.com/civicpulse/civicpulse/xerrors"
)

// ErrMalformedPayload 上游载荷缺失必填字段，拒绝而非静默补齐
var ErrMalformedPayload = xerrors.WithCode(
	xerrors.New("civic: upstream payload missing required fields"),
	xerrors.CodeInvalidInput,
)

// Service 领域数据适配器核心接口。
// stale 为 true 表示结果来自降级路径的陈旧缓存，外层应提示
// "展示最近一次已知数据"。
type Service interface {
	// BillsByDistrict 查询主选区议员发起的法案（Standard 档缓存）
	BillsByDistrict(ctx context.Context, a *district.Assignment) (bills []Bill, stale bool, err error)

	// Committees 查询指定议院的委员会列表（Standard 档缓存）
	Committees(ctx context.Context, chamber string) (committees []Committee, stale bool, err error)

	// RepresentativesByDistrict 查询主选区的议员名册（Durable 档缓存）
	RepresentativesByDistrict(ctx context.Context, a *district.Assignment) (reps []Representative, stale bool, err error)
}

type service struct {
	cfg      *Config
	client   apiclient.Client
	logger   clog.Logger
	validate *validator.Validate
}

func (s *service) BillsByDistrict(ctx context.Context, a *district.Assignment) ([]Bill, bool, error) {
	if a == nil {
		return nil, false, xerrors.Wrap(ErrMalformedPayload, "nil district assignment")
	}

	result, err := s.client.Fetch(ctx, &apiclient.RequestSpec{
		Upstream: s.cfg.LegislativeUpstream,
		Path:     "/bills",
		Query: url.Values{
			"state":    {s.cfg.State},
			"district": {strconv.Itoa(a.Primary.Assembly)},
		},
		Tier: cache.TierStandard,
	})
	if err != nil {
		return nil, false, err
	}

	bills, err := normalize[Bill](result.Data, "bills", s.validate)
	if err != nil {
		return nil, false, err
	}
	return bills, result.Stale, nil
}

func (s *service) Committees(ctx context.Context, chamber string) ([]Committee, bool, error) {
	result, err := s.client.Fetch(ctx, &apiclient.RequestSpec{
		Upstream: s.cfg.LegislativeUpstream,
		Path:     "/committees",
		Query: url.Values{
			"state":   {s.cfg.State},
			"chamber": {chamber},
		},
		Tier: cache.TierStandard,
	})
	if err != nil {
		return nil, false, err
	}

	committees, err := normalize[Committee](result.Data, "committees", s.validate)
	if err != nil {
		return nil, false, err
	}
	return committees, result.Stale, nil
}

func (s *service) RepresentativesByDistrict(ctx context.Context, a *district.Assignment) ([]Representative, bool, error) {
	if a == nil {
		return nil, false, xerrors.Wrap(ErrMalformedPayload, "nil district assignment")
	}

	result, err := s.client.Fetch(ctx, &apiclient.RequestSpec{
		Upstream: s.cfg.CongressUpstream,
		Path:     "/representatives",
		Query: url.Values{
			"state":    {s.cfg.State},
			"district": {strconv.Itoa(a.Primary.Congressional)},
		},
		Tier: cache.TierDurable,
	})
	if err != nil {
		return nil, false, err
	}

	reps, err := normalize[Representative](result.Data, "representatives", s.validate)
	if err != nil {
		return nil, false, err
	}
	return reps, result.Stale, nil
}

// normalize 把上游载荷的指定数组字段规范化为固定结构体切片。
// 任何一项缺失必填字段都会使整个载荷被拒绝。
func normalize[T any](data []byte, key string, validate *validator.Validate) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, xerrors.Wrap(ErrMalformedPayload, err.Error())
	}

	raw, ok := envelope[key]
	if !ok {
		return nil, xerrors.Wrapf(ErrMalformedPayload, "missing %q field", key)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, xerrors.Wrap(ErrMalformedPayload, err.Error())
	}

	for i := range items {
		if err := validate.Struct(&items[i]); err != nil {
			return nil, xerrors.Wrapf(ErrMalformedPayload, "item %d: %v", i, err)
		}
	}
	return items, nil
}
