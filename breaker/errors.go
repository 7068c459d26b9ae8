package breaker

import "github.com/civicpulse/civicpulse/xerrors"

// 错误定义
var (
	// ErrOpenState 上游处于熔断中，请求被短路
	ErrOpenState = xerrors.WithCode(
		xerrors.New("breaker: circuit is open"),
		xerrors.CodeCircuitOpen,
	)
)

// IsOpen 判断错误是否为熔断短路
func IsOpen(err error) bool {
	return xerrors.Is(err, ErrOpenState)
}
