package chtype

import (
	"encoding/json"
	"math"
	"strconv"
)

// =============================================================================
// 整数处理器
// =============================================================================

// intHandler 处理定宽整数类型。
// 标准内存表示：有符号为 int64，无符号为 uint64。
//
// 设计决策: Cast 对越界值返回 ErrCast 而非回绕/截断。
// 静默截断与整个系统"失败必须可见"的设计原则相悖（见 UInt8 拒绝 256 的行为）。
type intHandler struct {
	name   string
	bits   int
	signed bool
}

func (h *intHandler) Type() string { return h.name }

// bounds 返回该宽度的取值范围。
// 无符号时第一个返回值恒为 0，上界以 uint64 表示。
func (h *intHandler) bounds() (int64, uint64) {
	if h.signed {
		return math.MinInt64 >> (64 - h.bits), uint64(math.MaxInt64 >> (64 - h.bits))
	}
	return 0, math.MaxUint64 >> (64 - h.bits)
}

func (h *intHandler) Cast(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return h.castSigned(int64(n), v)
	case int8:
		return h.castSigned(int64(n), v)
	case int16:
		return h.castSigned(int64(n), v)
	case int32:
		return h.castSigned(int64(n), v)
	case int64:
		return h.castSigned(n, v)
	case uint:
		return h.castUnsigned(uint64(n), v)
	case uint8:
		return h.castUnsigned(uint64(n), v)
	case uint16:
		return h.castUnsigned(uint64(n), v)
	case uint32:
		return h.castUnsigned(uint64(n), v)
	case uint64:
		return h.castUnsigned(n, v)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, castError(v, h.name)
		}
		if n < 0 {
			return h.castSigned(int64(n), v)
		}
		// 先经由 uint64 以完整覆盖 UInt64 的高值区间
		return h.castUnsigned(uint64(n), v)
	case string:
		return h.castString(n, v)
	case json.Number:
		return h.castString(n.String(), v)
	default:
		return nil, castError(v, h.name)
	}
}

// castString 处理"形如整数的字符串"的强制转换。
func (h *intHandler) castString(s string, orig any) (any, error) {
	if h.signed {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, castError(orig, h.name)
		}
		return h.castSigned(n, orig)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, castError(orig, h.name)
	}
	return h.castUnsigned(n, orig)
}

func (h *intHandler) castSigned(n int64, orig any) (any, error) {
	minVal, maxVal := h.bounds()
	if h.signed {
		if n < minVal || (n > 0 && uint64(n) > maxVal) {
			return nil, castError(orig, h.name)
		}
		return n, nil
	}
	if n < 0 || uint64(n) > maxVal {
		return nil, castError(orig, h.name)
	}
	return uint64(n), nil
}

func (h *intHandler) castUnsigned(n uint64, orig any) (any, error) {
	_, maxVal := h.bounds()
	if n > maxVal {
		return nil, castError(orig, h.name)
	}
	if h.signed {
		return int64(n), nil
	}
	return n, nil
}

func (h *intHandler) Serialize(v any, _ Encoding) (any, error) {
	// 字面量与 JSON 均以十进制文本表达：encoding/json 对 int64/uint64
	// 按完整数字序列编码，不经过 float64，无精度损失。
	switch n := v.(type) {
	case int64:
		if !h.signed {
			return nil, castError(v, h.name)
		}
		return strconv.FormatInt(n, 10), nil
	case uint64:
		if h.signed {
			return nil, castError(v, h.name)
		}
		return strconv.FormatUint(n, 10), nil
	default:
		return nil, castError(v, h.name)
	}
}

func (h *intHandler) Deserialize(v any) (any, error) {
	// ClickHouse 的 JSON 格式对 64 位整数默认输出字符串，
	// 其余宽度输出数字；响应解析端启用 json.Number 保留精度。
	return h.Cast(v)
}

// =============================================================================
// 浮点处理器
// =============================================================================

// floatHandler 处理 Float32/Float64。
// 标准内存表示统一为 float64；Float32 在 Cast 时先收窄到 float32 再放宽，
// 使往返律对 Float32 成立（在途精度损失发生且仅发生在这一步）。
type floatHandler struct {
	name string
	bits int
}

func (h *floatHandler) Type() string { return h.name }

func (h *floatHandler) Cast(v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, castError(v, h.name)
		}
		f = parsed
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil, castError(v, h.name)
		}
		f = parsed
	default:
		return nil, castError(v, h.name)
	}

	if h.bits == 32 {
		f = float64(float32(f))
	}
	return f, nil
}

func (h *floatHandler) Serialize(v any, _ Encoding) (any, error) {
	f, ok := v.(float64)
	if !ok {
		return nil, castError(v, h.name)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (h *floatHandler) Deserialize(v any) (any, error) {
	return h.Cast(v)
}
