package opstat

import (
	"context"
	"time"
)

// SlowQueryHook 慢查询同步回调钩子。
// 在请求路径上同步执行，耗时操作（网络 IO、重日志）会增加请求延迟。
type SlowQueryHook[T any] func(ctx context.Context, info T)

// SlowQueryDetector 慢查询检测器。
// 阈值为 0 时检测被禁用，MaybeSlowQuery 恒返回 false。
type SlowQueryDetector[T any] struct {
	threshold time.Duration
	hook      SlowQueryHook[T]
}

// NewSlowQueryDetector 创建慢查询检测器。
func NewSlowQueryDetector[T any](threshold time.Duration, hook SlowQueryHook[T]) *SlowQueryDetector[T] {
	return &SlowQueryDetector[T]{threshold: threshold, hook: hook}
}

// MaybeSlowQuery 检测并可能触发慢查询钩子，返回是否触发。
// duration >= threshold 时触发。
func (d *SlowQueryDetector[T]) MaybeSlowQuery(ctx context.Context, info T, duration time.Duration) bool {
	if d == nil || d.threshold == 0 || duration < d.threshold {
		return false
	}
	if d.hook != nil {
		d.hook(ctx, info)
	}
	return true
}
