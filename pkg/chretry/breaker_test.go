package chretry

import (
	"context"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerRetryer_TripsAndShortCircuits(t *testing.T) {
	r := New(WithMaxAttempts(10), WithBackoff(NewNoBackoff()))
	br, err := NewBreakerRetryer(r, BreakerSettings{
		Name:                "test",
		ConsecutiveFailures: 3,
	})
	require.NoError(t, err)

	calls := 0
	err = br.Do(context.Background(), true, func(_ context.Context, _ string) error {
		calls++
		return Temporary(errBoom)
	})

	// 第 3 次失败触发熔断，第 4 次尝试被熔断器短路并判为永久性错误，
	// 剩余重试预算不再消耗
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, br.State())
}

func TestBreakerRetryer_SuccessPassesThrough(t *testing.T) {
	br, err := NewBreakerRetryer(New(WithBackoff(NewNoBackoff())), BreakerSettings{Name: "ok"})
	require.NoError(t, err)

	err = br.Do(context.Background(), true, func(_ context.Context, _ string) error {
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, br.State())
}

func TestBreakerRetryer_NilRetryer(t *testing.T) {
	_, err := NewBreakerRetryer(nil, BreakerSettings{})
	assert.ErrorIs(t, err, ErrNilRetryer)
}
