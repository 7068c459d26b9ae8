package cache

import "github.com/civicpulse/civicpulse/xerrors"

// 错误定义
var (
	// ErrMiss 条目缺失或已逻辑过期
	ErrMiss = xerrors.New("cache: miss")
)

// IsMiss 判断错误是否为缓存未命中
func IsMiss(err error) bool {
	return xerrors.Is(err, ErrMiss)
}
