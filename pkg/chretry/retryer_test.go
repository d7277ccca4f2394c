package chretry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newFastRetryer(opts ...Option) *Retryer {
	base := []Option{WithMaxAttempts(3), WithBackoff(NewNoBackoff())}
	return New(append(base, opts...)...)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	r := newFastRetryer()

	calls := 0
	err := r.Do(context.Background(), true, func(_ context.Context, _ string) error {
		calls++
		return Temporary(errBoom)
	})

	// 恒为可重试错误：恰好执行 maxAttempts 次，之后原始错误原样抛出
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errBoom)
}

func TestRetryer_PermanentErrorSingleAttempt(t *testing.T) {
	r := newFastRetryer()

	calls := 0
	err := r.Do(context.Background(), true, func(_ context.Context, _ string) error {
		calls++
		return Permanent(errBoom)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errBoom)
}

func TestRetryer_SuccessInvisible(t *testing.T) {
	r := newFastRetryer()

	calls := 0
	err := r.Do(context.Background(), true, func(_ context.Context, _ string) error {
		calls++
		if calls < 3 {
			return Temporary(errBoom)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_NonIdempotentGating(t *testing.T) {
	r := newFastRetryer()

	// 可重试但副作用可能已发生：非幂等操作只执行一次
	calls := 0
	err := r.Do(context.Background(), false, func(_ context.Context, _ string) error {
		calls++
		return Temporary(errBoom)
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errBoom)

	// 发送前失败：非幂等操作也可以安全重试
	calls = 0
	err = r.Do(context.Background(), false, func(_ context.Context, _ string) error {
		calls++
		return &TemporaryError{Err: errBoom, BeforeSend: true}
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errBoom)
}

func TestRetryer_FreshTokenPerAttempt(t *testing.T) {
	r := newFastRetryer()

	var tokens []string
	_ = r.Do(context.Background(), true, func(_ context.Context, queryID string) error {
		tokens = append(tokens, queryID)
		return Temporary(errBoom)
	})

	require.Len(t, tokens, 3)
	assert.NotEqual(t, tokens[0], tokens[1])
	assert.NotEqual(t, tokens[1], tokens[2])
	for _, tok := range tokens {
		assert.NotEmpty(t, tok)
	}
}

func TestRetryer_OnRetryCallback(t *testing.T) {
	var attempts []int
	r := newFastRetryer(WithOnRetry(func(attempt int, err error) {
		attempts = append(attempts, attempt)
		assert.ErrorIs(t, err, errBoom)
	}))

	_ = r.Do(context.Background(), true, func(_ context.Context, _ string) error {
		return Temporary(errBoom)
	})

	// 3 次尝试产生 2 次重试回调，耗尽后的最后一次失败不触发回调
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryer_OnRetryNotCalledWithoutRetry(t *testing.T) {
	called := false
	r := New(WithMaxAttempts(1), WithBackoff(NewNoBackoff()),
		WithOnRetry(func(int, error) { called = true }))

	err := r.Do(context.Background(), true, func(_ context.Context, _ string) error {
		return Temporary(errBoom)
	})

	require.ErrorIs(t, err, errBoom)
	assert.False(t, called, "单次尝试不存在重试，回调不应触发")
}

func TestRetryer_ContextCanceled(t *testing.T) {
	r := newFastRetryer()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, true, func(_ context.Context, _ string) error {
		calls++
		cancel()
		return Temporary(errBoom)
	})

	assert.Equal(t, 1, calls)
	assert.Error(t, err)
}

func TestRetryer_NilSafe(t *testing.T) {
	var r *Retryer
	err := r.Do(context.Background(), true, func(_ context.Context, _ string) error { return nil })
	assert.ErrorIs(t, err, ErrNilRetryer)

	err = New().Do(context.Background(), true, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestRetryer_TokenSourceInjectable(t *testing.T) {
	n := 0
	r := newFastRetryer(WithTokenSource(func() string {
		n++
		return "token-" + string(rune('0'+n))
	}))

	var seen []string
	_ = r.Do(context.Background(), true, func(_ context.Context, queryID string) error {
		seen = append(seen, queryID)
		return Temporary(errBoom)
	})
	assert.Equal(t, []string{"token-1", "token-2", "token-3"}, seen)
}
