package chtype

import "errors"

// 包级别错误定义。
var (
	// ErrSyntax 表示类型名不符合语法（括号不配对、空参数列表、尾部残留等）。
	// 具体位置信息通过 fmt.Errorf("%w: ...") 包装附加。
	ErrSyntax = errors.New("chtype: invalid type syntax")

	// ErrUnknownType 表示注册表中不存在该类型名。
	// 包装后的错误信息会指出具体的类型名。
	ErrUnknownType = errors.New("chtype: unknown type")

	// ErrResolve 表示类型参数数量不符（如 Array 缺少元素类型、Map 参数不足两个）。
	ErrResolve = errors.New("chtype: type resolution failed")

	// ErrCast 表示输入值无法规范化为目标类型。
	// 包装后的错误信息会同时指出非法值和目标类型。
	ErrCast = errors.New("chtype: cast failed")

	// ErrNilRegistry 表示在 nil 注册表上调用方法。
	ErrNilRegistry = errors.New("chtype: nil registry (use NewRegistry to create)")
)
