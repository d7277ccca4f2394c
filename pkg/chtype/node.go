package chtype

import "strings"

// Node 是类型表达式解析后的 AST 节点。
//
// 简单类型（String、UInt8）是 Args 为空的叶子节点；
// 参数化类型（Array(T)、Map(K, V)）的参数按顺序保存在 Args 中。
// 数值字面量参数（FixedString(16) 中的 16）同样是叶子节点，Name 即字面量。
//
// 不变式：对任意合法类型字符串，String() 重新序列化得到的规范形式
// 与原始输入在忽略空白的意义下等价，且可被 Parse 再次解析为相同的树。
type Node struct {
	// Name 是类型名或字面量参数。
	Name string

	// Args 是有序的参数节点列表，简单类型为空。
	Args []*Node
}

// String 返回节点的规范序列化形式：Name 或 Name(arg, arg, ...)。
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if len(n.Args) == 0 {
		return n.Name
	}

	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteByte('(')
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Leaf 报告节点是否为叶子节点（无参数）。
func (n *Node) Leaf() bool {
	return n != nil && len(n.Args) == 0
}
