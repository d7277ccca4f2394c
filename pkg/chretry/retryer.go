package chretry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/google/uuid"
)

// AttemptFunc 是被重试的操作。
// queryID 是本次尝试独立生成的幂等令牌，调用方应将其作为 query_id
// 传给服务端，使重复到达的请求可被服务端按 id 去重。
type AttemptFunc func(ctx context.Context, queryID string) error

// Retryer 重试执行器。
//
// 组合尝试次数上限、退避策略与幂等性门控，底层由 avast/retry-go/v5 驱动。
// 构造后不可变，可被多个 goroutine 并发使用（每次 Do 的状态相互独立）。
type Retryer struct {
	maxAttempts int
	backoff     BackoffPolicy
	onRetry     func(attempt int, err error)
	newToken    func() string
}

// Option 执行器配置选项。
type Option func(*Retryer)

// WithMaxAttempts 设置总尝试次数（含首次），最小为 1。
func WithMaxAttempts(n int) Option {
	return func(r *Retryer) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff 设置退避策略。nil 被静默忽略。
func WithBackoff(b BackoffPolicy) Option {
	return func(r *Retryer) {
		if b != nil {
			r.backoff = b
		}
	}
}

// WithOnRetry 设置重试回调。attempt 从 1 开始，表示刚失败的那次尝试；
// 回调仅在随后确实发生重试时触发，耗尽后的最后一次失败不会回调。
func WithOnRetry(f func(attempt int, err error)) Option {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// WithTokenSource 替换幂等令牌生成函数，仅用于测试。
func WithTokenSource(f func() string) Option {
	return func(r *Retryer) {
		if f != nil {
			r.newToken = f
		}
	}
}

// New 创建重试执行器。
// 默认值：3 次尝试、NewExponentialBackoff()、UUID 令牌。
func New(opts ...Option) *Retryer {
	r := &Retryer{
		maxAttempts: 3,
		backoff:     NewExponentialBackoff(),
		newToken:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts 返回总尝试次数上限。
func (r *Retryer) MaxAttempts() int {
	if r == nil {
		return 0
	}
	return r.maxAttempts
}

// Do 执行带重试的操作。
//
// idempotent 为 true 时，所有可重试错误（IsRetryable）都会触发重试；
// 为 false 时只重试发送前失败（IsRetryable 且 IsPreExecution）——
// 副作用可能已发生的错误原样抛出，由服务端 query_id 去重兜底的场景
// 也必须显式声明 idempotent 才会重试。
//
// 每次尝试 fn 都会收到新生成的令牌。重试耗尽后返回最后一次的原始错误，
// 不做任何包装。
func (r *Retryer) Do(ctx context.Context, idempotent bool, fn AttemptFunc) error {
	if r == nil {
		return ErrNilRetryer
	}
	if fn == nil {
		return ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uintAttempts(r.maxAttempts)),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			if !IsRetryable(err) {
				return false
			}
			return idempotent || IsPreExecution(err)
		}),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			// retry-go v5 的 n 从 1 开始，与 BackoffPolicy.NextDelay 一致
			return r.backoff.NextDelay(int(n))
		}),
		// 只返回最后一个错误，保证"耗尽后原始错误原样可见"
		retry.LastErrorOnly(true),
	}
	if r.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// retry-go v5 在最后一次失败后也会触发 OnRetry，此时不会再有重试，
			// 回调只报告真实发生的重试。n 从 0 开始，转换为 1-based。
			attempt := int(n) + 1
			if attempt >= r.maxAttempts {
				return
			}
			r.onRetry(attempt, err)
		}))
	}

	return retry.New(opts...).Do(func() error {
		return fn(ctx, r.newToken())
	})
}

// uintAttempts 把尝试次数安全转换为 retry-go 的 uint 参数。
func uintAttempts(n int) uint {
	if n < 1 {
		return 1
	}
	return uint(n)
}
