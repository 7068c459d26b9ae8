package district

import (
	"regexp"

	"github.com/civicpulse/civicpulse/xerrors"
)

// 错误定义
var (
	// ErrInvalidZIP 输入不是五位数字 ZIP
	ErrInvalidZIP = xerrors.WithCode(
		xerrors.New("district: zip must be exactly 5 digits"),
		xerrors.CodeInvalidInput,
	)
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// validZIP 判断 zip 是否为合法的五位数字
func validZIP(zip string) bool {
	return zipPattern.MatchString(zip)
}
