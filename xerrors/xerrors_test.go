package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")

	t.Run("包装后保留错误链", func(t *testing.T) {
		err := Wrap(base, "fetch bills")
		require.Error(t, err)
		assert.True(t, errors.Is(err, base))
		assert.Contains(t, err.Error(), "fetch bills")
	})

	t.Run("nil 错误返回 nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "anything"))
		assert.NoError(t, Wrapf(nil, "anything %d", 1))
	})
}

func TestWithCode(t *testing.T) {
	base := errors.New("budget exhausted")

	t.Run("错误码可从错误链提取", func(t *testing.T) {
		err := WithCode(base, CodeQuotaExceeded)
		assert.Equal(t, CodeQuotaExceeded, GetCode(err))
		assert.True(t, errors.Is(err, base))
	})

	t.Run("外层再包装不影响提取", func(t *testing.T) {
		err := Wrap(WithCode(base, CodeUpstreamUnavailable), "fetch committees")
		assert.Equal(t, CodeUpstreamUnavailable, GetCode(err))
	})

	t.Run("无错误码返回空串", func(t *testing.T) {
		assert.Equal(t, "", GetCode(base))
	})
}

func TestCombine(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")

	assert.NoError(t, Combine(nil, nil))
	assert.Equal(t, e1, Combine(nil, e1))

	combined := Combine(e1, e2)
	assert.True(t, errors.Is(combined, e1))
	assert.True(t, errors.Is(combined, e2))
}
