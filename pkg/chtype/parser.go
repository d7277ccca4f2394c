package chtype

import "fmt"

// Parse 解析 ClickHouse 类型名字符串，返回类型 AST。
//
// 文法（递归下降，单 token 前瞻）：
//
//	type      := atom [ "(" type_list ")" ]
//	type_list := type ("," type)*
//	atom      := 标识符 | 数值字面量 | 单引号字符串
//
// token 之间的空白不敏感。嵌套深度不受限制，
// 深层嵌套如 Map(String, Array(Nullable(UInt64))) 逐层递归处理。
//
// 语法违例（括号不配对、空参数列表、尾部残留字符）返回包装 ErrSyntax 的错误。
func Parse(s string) (*Node, error) {
	p := &parser{input: s}

	node, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("%w: trailing characters %q at position %d", ErrSyntax, p.input[p.pos:], p.pos)
	}
	return node, nil
}

// parser 持有解析状态：输入串与当前偏移。
type parser struct {
	input string
	pos   int
}

// parseType 解析一个 type 产生式。
func (p *parser) parseType() (*Node, error) {
	p.skipSpace()

	name, err := p.readAtom()
	if err != nil {
		return nil, err
	}
	node := &Node{Name: name}

	p.skipSpace()
	if !p.peekIs('(') {
		return node, nil
	}
	p.pos++ // 消费 '('

	p.skipSpace()
	if p.peekIs(')') {
		return nil, fmt.Errorf("%w: empty type list for %q at position %d", ErrSyntax, name, p.pos)
	}

	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, arg)

		p.skipSpace()
		switch {
		case p.peekIs(','):
			p.pos++
		case p.peekIs(')'):
			p.pos++
			return node, nil
		default:
			return nil, fmt.Errorf("%w: unbalanced parentheses in %q (expected ',' or ')' at position %d)", ErrSyntax, p.input, p.pos)
		}
	}
}

// readAtom 读取一个标识符、数值字面量或单引号字符串。
func (p *parser) readAtom() (string, error) {
	if p.pos >= len(p.input) {
		return "", fmt.Errorf("%w: unexpected end of input in %q", ErrSyntax, p.input)
	}

	// 单引号字符串（如 DateTime64(3, 'Asia/Shanghai') 的时区参数）
	if p.input[p.pos] == '\'' {
		return p.readQuoted()
	}

	start := p.pos
	for p.pos < len(p.input) && isAtomChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, p.input[p.pos], p.pos)
	}
	return p.input[start:p.pos], nil
}

// readQuoted 读取单引号字符串，引号保留在 token 中以保持规范序列化可逆。
func (p *parser) readQuoted() (string, error) {
	start := p.pos
	p.pos++ // 消费开始引号
	for p.pos < len(p.input) && p.input[p.pos] != '\'' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return "", fmt.Errorf("%w: unterminated string literal at position %d", ErrSyntax, start)
	}
	p.pos++ // 消费结束引号
	return p.input[start:p.pos], nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *parser) peekIs(c byte) bool {
	return p.pos < len(p.input) && p.input[p.pos] == c
}

// isAtomChar 报告字符是否可出现在标识符或数值字面量中。
// 负号和小数点允许出现，覆盖 Decimal(10, -2) 这类数值参数。
func isAtomChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	default:
		return false
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
