package chtype

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// quoteLiteral 把字符串转义为 SQL 单引号字面量。
// 反斜杠与单引号按 ClickHouse 转义规则处理。
func quoteLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// =============================================================================
// String / FixedString
// =============================================================================

// stringHandler 处理 String 类型，标准内存表示为 string。
type stringHandler struct{}

func (stringHandler) Type() string { return "String" }

func (stringHandler) Cast(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return nil, castError(v, "String")
	}
}

func (stringHandler) Serialize(v any, enc Encoding) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, castError(v, "String")
	}
	if enc == EncodingLiteral {
		return quoteLiteral(s), nil
	}
	return s, nil
}

func (stringHandler) Deserialize(v any) (any, error) {
	return stringHandler{}.Cast(v)
}

// fixedStringHandler 处理 FixedString(N)，Cast 校验字节长度不超过 N。
type fixedStringHandler struct {
	size int
}

func (h fixedStringHandler) Type() string {
	return "FixedString(" + strconv.Itoa(h.size) + ")"
}

func (h fixedStringHandler) Cast(v any) (any, error) {
	cast, err := stringHandler{}.Cast(v)
	if err != nil {
		return nil, castError(v, h.Type())
	}
	s := cast.(string)
	if len(s) > h.size {
		return nil, castError(v, h.Type())
	}
	return s, nil
}

func (h fixedStringHandler) Serialize(v any, enc Encoding) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, castError(v, h.Type())
	}
	if enc == EncodingLiteral {
		return quoteLiteral(s), nil
	}
	return s, nil
}

func (h fixedStringHandler) Deserialize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, castError(v, h.Type())
	}
	// 服务端会按 N 字节零填充，读取侧去掉尾部填充还原原值
	return strings.TrimRight(s, "\x00"), nil
}

// fixedStringFactory 解析 FixedString(N) 的宽度参数。
func fixedStringFactory(_ Resolver, node *Node) (Handler, error) {
	if len(node.Args) != 1 {
		return nil, arityError("FixedString", "exactly one numeric", len(node.Args))
	}
	size, err := strconv.Atoi(node.Args[0].Name)
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("%w: FixedString size %q is not a positive integer", ErrResolve, node.Args[0].Name)
	}
	return fixedStringHandler{size: size}, nil
}

// =============================================================================
// UUID
// =============================================================================

// uuidHandler 处理 UUID 类型，标准内存表示为 uuid.UUID。
type uuidHandler struct{}

func (uuidHandler) Type() string { return "UUID" }

func (uuidHandler) Cast(v any) (any, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, castError(v, "UUID")
		}
		return parsed, nil
	case []byte:
		parsed, err := uuid.FromBytes(u)
		if err != nil {
			return nil, castError(v, "UUID")
		}
		return parsed, nil
	default:
		return nil, castError(v, "UUID")
	}
}

func (uuidHandler) Serialize(v any, enc Encoding) (any, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return nil, castError(v, "UUID")
	}
	if enc == EncodingLiteral {
		return quoteLiteral(u.String()), nil
	}
	return u.String(), nil
}

func (uuidHandler) Deserialize(v any) (any, error) {
	return uuidHandler{}.Cast(v)
}

// =============================================================================
// Bool
// =============================================================================

// boolHandler 处理 Bool 类型，标准内存表示为 bool。
// ClickHouse 内部以 UInt8 存储，数值 0/1 和文本 true/false 均接受。
type boolHandler struct{}

func (boolHandler) Type() string { return "Bool" }

func (boolHandler) Cast(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int, int64, uint64, float64, json.Number:
		cast, err := (&intHandler{name: "Bool", bits: 8, signed: false}).Cast(v)
		if err != nil {
			return nil, castError(v, "Bool")
		}
		switch cast.(uint64) {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, castError(b, "Bool")
		}
	case string:
		switch b {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		default:
			return nil, castError(v, "Bool")
		}
	default:
		return nil, castError(v, "Bool")
	}
}

func (boolHandler) Serialize(v any, enc Encoding) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, castError(v, "Bool")
	}
	if enc == EncodingLiteral {
		return strconv.FormatBool(b), nil
	}
	return b, nil
}

func (boolHandler) Deserialize(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	default:
		return boolHandler{}.Cast(v)
	}
}
