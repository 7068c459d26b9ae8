package quota

import "github.com/civicpulse/civicpulse/xerrors"

// 错误定义
var (
	// ErrQuotaExceeded 当前窗口的调用预算已耗尽
	ErrQuotaExceeded = xerrors.WithCode(
		xerrors.New("quota: budget exhausted for current window"),
		xerrors.CodeQuotaExceeded,
	)
)

// IsExceeded 判断错误是否为配额耗尽
func IsExceeded(err error) bool {
	return xerrors.Is(err, ErrQuotaExceeded)
}
