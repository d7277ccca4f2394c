package chretry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(Permanent(errBoom)))
	assert.True(t, IsRetryable(Temporary(errBoom)))
	// 未知错误默认按瞬时处理
	assert.True(t, IsRetryable(errors.New("unknown")))
	// 包装后的分类错误通过 errors.As 仍可识别
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", Permanent(errBoom))))
}

func TestIsPreExecution(t *testing.T) {
	assert.False(t, IsPreExecution(nil))
	// 安全默认值：未声明的错误视为副作用可能已发生
	assert.False(t, IsPreExecution(errors.New("unknown")))
	assert.False(t, IsPreExecution(Temporary(errBoom)))
	assert.True(t, IsPreExecution(&TemporaryError{Err: errBoom, BeforeSend: true}))
}

func TestClassificationErrors_Unwrap(t *testing.T) {
	assert.ErrorIs(t, Permanent(errBoom), errBoom)
	assert.ErrorIs(t, Temporary(errBoom), errBoom)
	assert.Equal(t, errBoom.Error(), Permanent(errBoom).Error())
	assert.Equal(t, "permanent error", (&PermanentError{}).Error())
	assert.Equal(t, "temporary error", (&TemporaryError{}).Error())
}
