package chretry

import "errors"

// 包级别错误定义。
var (
	// ErrNilRetryer 表示在 nil 执行器上调用方法。
	ErrNilRetryer = errors.New("chretry: nil retryer (use New to create)")

	// ErrNilFunc 表示传入了 nil 的操作函数。
	ErrNilFunc = errors.New("chretry: nil function")

	// ErrNilBreaker 表示传入了 nil 熔断器。
	ErrNilBreaker = errors.New("chretry: nil breaker")
)

// RetryableError 可重试错误接口。
// 实现此接口的错误自行声明是否可重试；
// 本库的连接类错误和 HTTP 5xx/429 查询错误均实现此接口。
type RetryableError interface {
	error
	Retryable() bool
}

// PreExecutionError 发送前失败接口。
// 返回 true 表示错误发生在任何请求字节写出之前（如连接被拒、DNS 失败），
// 此类失败即使对非幂等操作也可以安全重试——副作用必然尚未发生。
type PreExecutionError interface {
	error
	PreExecution() bool
}

// PermanentError 永久性错误（不应重试）。
type PermanentError struct {
	Err error
}

// Permanent 把错误标记为永久性错误。
func Permanent(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func (e *PermanentError) Retryable() bool {
	return false
}

// TemporaryError 临时性错误（应该重试）。
type TemporaryError struct {
	Err error

	// BeforeSend 标记失败是否发生在请求写出之前。
	BeforeSend bool
}

// Temporary 把错误标记为临时性错误。
func Temporary(err error) *TemporaryError {
	return &TemporaryError{Err: err}
}

func (e *TemporaryError) Error() string {
	if e.Err == nil {
		return "temporary error"
	}
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

func (e *TemporaryError) Retryable() bool {
	return true
}

func (e *TemporaryError) PreExecution() bool {
	return e.BeforeSend
}

// IsRetryable 判断错误是否可重试。
// 规则：
//   - nil：无需重试（视为成功）
//   - 实现 RetryableError：按 Retryable() 返回值
//   - 其他错误：默认可重试（未知的传输层故障按瞬时处理）
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}

// IsPreExecution 判断错误是否为发送前失败。
// 未实现 PreExecutionError 接口的错误一律视为"副作用可能已发生"，
// 返回 false——这是非幂等门控的安全默认值。
func IsPreExecution(err error) bool {
	if err == nil {
		return false
	}
	var pe PreExecutionError
	if errors.As(err, &pe) {
		return pe.PreExecution()
	}
	return false
}
