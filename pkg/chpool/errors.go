package chpool

import (
	"errors"
	"fmt"
	"time"
)

// ============================================================================
// 哨兵错误
// ============================================================================

var (
	// ErrNotEstablished 表示到 ClickHouse 的连接无法建立（连接被拒、
	// DNS 失败等）。属于执行前失败，幂等与非幂等操作均可安全重试。
	ErrNotEstablished = errors.New("chpool: connection not established")

	// ErrConnectTimeout 表示建连在配置的时间内未完成。
	// 属于执行前失败，可安全重试。
	ErrConnectTimeout = errors.New("chpool: connect timed out")

	// ErrPoolTimeout 表示在配置的等待时间内未能取得连接。
	// 这是容量耗尽信号而非瞬时故障，不参与自动重试。
	ErrPoolTimeout = errors.New("chpool: checkout timed out")

	// ErrPoolClosed 表示连接池已关闭且不再接受 Checkout。
	ErrPoolClosed = errors.New("chpool: pool is closed")

	// ErrNilFactory 表示 NewPool 收到了 nil 连接工厂。
	ErrNilFactory = errors.New("chpool: nil connection factory")

	// ErrInvalidSize 表示连接池容量不合法（size <= 0）。
	ErrInvalidSize = errors.New("chpool: pool size must be positive")
)

// ============================================================================
// TransportError
// ============================================================================

// TransportError 包装一次 HTTP 往返中发生的传输层失败。
//
// BeforeSend 标记失败是否发生在请求抵达服务器之前（建连、DNS 解析）。
// 执行前失败保证服务器未执行任何语句，因此即便对非幂等操作也可重试；
// 发出请求之后的失败（读超时、连接中断）无法判定服务器是否已执行，
// 只有幂等操作才允许重试。
type TransportError struct {
	// Op 是失败时所处的阶段，如 "connect"、"post"、"ping"。
	Op string

	// Err 是底层传输错误。
	Err error

	// BeforeSend 为 true 表示请求尚未发出。
	BeforeSend bool
}

// Error 实现 error 接口。
func (e *TransportError) Error() string {
	return fmt.Sprintf("chpool: %s: %v", e.Op, e.Err)
}

// Unwrap 返回底层错误，支持 errors.Is/errors.As 链式匹配。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable 报告该错误可重试。传输层失败一律视为瞬时故障。
func (e *TransportError) Retryable() bool {
	return true
}

// PreExecution 报告失败是否发生在请求发出之前。
func (e *TransportError) PreExecution() bool {
	return e.BeforeSend
}

// ============================================================================
// TimeoutError
// ============================================================================

// TimeoutError 携带 Checkout 超时现场：等待时长与当前占用数。
// errors.Is(err, ErrPoolTimeout) 可匹配。
type TimeoutError struct {
	// Wait 是本次 Checkout 等待的时长。
	Wait time.Duration

	// InUse 是超时时刻正被占用的连接数。
	InUse int
}

// Error 实现 error 接口。
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("chpool: checkout timed out after %s (%d connection(s) in use)",
		e.Wait, e.InUse)
}

// Is 使 errors.Is(err, ErrPoolTimeout) 成立。
func (e *TimeoutError) Is(target error) bool {
	return target == ErrPoolTimeout
}

// Retryable 报告该错误不可重试：容量耗尽重试只会再次排队等待。
func (e *TimeoutError) Retryable() bool {
	return false
}
