package chtype

import "fmt"

// Encoding 表示 Serialize 的目标编码。
// 字面量还是 JSON 是调用点的参数，而非处理器自身的属性：
// 同一个处理器既用于内联查询（字面量），也用于 JSONEachRow 插入体（JSON 值）。
type Encoding int

const (
	// EncodingLiteral 产出 SQL 字面量文本（string）。
	EncodingLiteral Encoding = iota

	// EncodingJSON 产出可直接交给 encoding/json 编码的值。
	EncodingJSON
)

// Handler 是一个具体类型的可组合转换器。
//
// 复合处理器（Array/Map/Tuple/Nullable/LowCardinality）独占其内层处理器，
// 所有权树与 Node 树同构。处理器构造后不可变，可在多行多列间并发复用。
type Handler interface {
	// Type 返回处理器对应的规范类型名，用于错误信息。
	Type() string

	// Cast 把输入值校验并规范化为该类型的标准内存表示。
	// 非法输入返回包装 ErrCast 的错误，信息中包含非法值和目标类型。
	Cast(v any) (any, error)

	// Serialize 产出 v 的写入侧表示。
	// v 必须已是标准内存表示（即 Cast 的输出）。
	Serialize(v any, enc Encoding) (any, error)

	// Deserialize 把响应体中读到的线上值还原为标准内存表示。
	Deserialize(v any) (any, error)
}

// castError 构造统一格式的 Cast 错误，指出非法值与目标类型。
func castError(v any, typ string) error {
	return fmt.Errorf("%w: cannot cast %v (%T) to %s", ErrCast, v, v, typ)
}

// arityError 构造统一格式的参数数量错误。
func arityError(typ string, want string, got int) error {
	return fmt.Errorf("%w: %s requires %s argument(s), got %d", ErrResolve, typ, want, got)
}
