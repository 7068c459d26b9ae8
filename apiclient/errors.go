package apiclient

import "github.com/civicpulse/civicpulse/xerrors"

// 错误定义
var (
	// ErrInvalidSpec 请求描述不合法（未注册的上游、空路径等），不重试
	ErrInvalidSpec = xerrors.WithCode(
		xerrors.New("apiclient: invalid request spec"),
		xerrors.CodeInvalidInput,
	)

	// ErrUpstreamUnavailable 重试耗尽且无可用缓存副本
	ErrUpstreamUnavailable = xerrors.WithCode(
		xerrors.New("apiclient: upstream unavailable after retries"),
		xerrors.CodeUpstreamUnavailable,
	)
)

// IsUnavailable 判断错误是否为上游不可用
func IsUnavailable(err error) bool {
	return xerrors.Is(err, ErrUpstreamUnavailable)
}
