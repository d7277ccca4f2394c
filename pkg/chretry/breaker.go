package chretry

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerRetryer 熔断器+重试组合执行器。
//
// 每次重试尝试都经过熔断器：连续失败触发熔断后，剩余重试立即短路
// （熔断打开被标记为永久性错误，不再消耗重试预算），
// 防止重试风暴对已故障的服务端持续施压。
type BreakerRetryer struct {
	breaker *gobreaker.CircuitBreaker[any]
	retryer *Retryer
}

// BreakerSettings 熔断器配置。
type BreakerSettings struct {
	// Name 熔断器名称，用于日志与状态回调。
	Name string

	// ConsecutiveFailures 连续失败多少次后熔断，默认 5。
	ConsecutiveFailures uint32

	// OpenTimeout 熔断打开后多久进入半开探测，默认 10s。
	OpenTimeout time.Duration

	// MaxHalfOpenRequests 半开状态允许的探测请求数，默认 1。
	MaxHalfOpenRequests uint32
}

// NewBreakerRetryer 创建熔断器+重试组合执行器。
func NewBreakerRetryer(retryer *Retryer, settings BreakerSettings) (*BreakerRetryer, error) {
	if retryer == nil {
		return nil, ErrNilRetryer
	}

	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := settings.OpenTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxHalfOpenRequests,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return &BreakerRetryer{breaker: cb, retryer: retryer}, nil
}

// Do 执行带熔断与重试的操作。
// 语义与 Retryer.Do 一致，但每次尝试先经熔断器放行。
func (br *BreakerRetryer) Do(ctx context.Context, idempotent bool, fn AttemptFunc) error {
	if br == nil {
		return ErrNilBreaker
	}
	return br.retryer.Do(ctx, idempotent, func(ctx context.Context, queryID string) error {
		_, err := br.breaker.Execute(func() (any, error) {
			return nil, fn(ctx, queryID)
		})
		// 熔断打开/半开限流属于快速失败，继续重试没有意义
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Permanent(err)
		}
		return err
	})
}

// State 返回熔断器当前状态。
func (br *BreakerRetryer) State() gobreaker.State {
	return br.breaker.State()
}
