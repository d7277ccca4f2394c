package chretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// Jitter 表示退避延迟的抖动策略。
type Jitter int

const (
	// JitterNone 不抖动，按计算值精确等待。
	JitterNone Jitter = iota

	// JitterFull 在 [0, d] 内均匀取值，最大程度打散并发重试。
	JitterFull

	// JitterEqual 取 d/2 + [0, d/2] 均匀值，兼顾打散与下界保证。
	JitterEqual
)

// BackoffPolicy 计算重试间隔。
type BackoffPolicy interface {
	// NextDelay 返回第 attempt 次失败后的等待时间（attempt 从 1 开始）。
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff 指数退避策略。
// 第 k 次失败（k 从 0 计）后的基础延迟为 min(maxDelay, initialDelay·multiplier^k)，
// 再按 Jitter 策略调整。
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       Jitter
}

// ExponentialBackoffOption 指数退避配置选项。
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置初始延迟。非正值被忽略（保持默认值）。
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initialDelay = d
		}
	}
}

// WithMaxDelay 设置延迟上限。非正值被忽略。
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier 设置乘数因子（>= 1.0）。
// 小于 1.0 的值被忽略（保持默认值 2.0）。
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithJitterStrategy 设置抖动策略。
func WithJitterStrategy(j Jitter) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		switch j {
		case JitterNone, JitterFull, JitterEqual:
			b.jitter = j
		}
	}
}

// NewExponentialBackoff 创建指数退避策略。
// 默认值：initialDelay 100ms、maxDelay 30s、multiplier 2.0、JitterEqual。
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       JitterEqual,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxDelay < b.initialDelay {
		b.maxDelay = b.initialDelay
	}
	return b
}

// NextDelay 返回第 attempt 次失败后的等待时间。
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	// attempt 极大时 math.Pow 溢出为 +Inf；NaN/负值同样按已达上限处理
	if math.IsNaN(delay) || delay < 0 || delay >= float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	switch b.jitter {
	case JitterFull:
		delay = randomFloat64() * delay
	case JitterEqual:
		delay = delay/2 + randomFloat64()*delay/2
	}

	return time.Duration(delay)
}

// NoBackoff 无延迟退避策略，主要用于测试。
type NoBackoff struct{}

// NewNoBackoff 创建无延迟退避策略。
func NewNoBackoff() *NoBackoff {
	return &NoBackoff{}
}

func (*NoBackoff) NextDelay(_ int) time.Duration {
	return 0
}

// 确保实现了接口。
var (
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
	_ BackoffPolicy = (*NoBackoff)(nil)
)

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0, 1) 内的随机数。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时返回 0，等价于无抖动（安全默认值）
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
