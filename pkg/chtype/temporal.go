package chtype

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 时间类型的线上文本格式。
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// =============================================================================
// Date
// =============================================================================

// dateHandler 处理 Date 类型。
// 标准内存表示为 UTC 零点的 time.Time，时分秒在 Cast 时截断。
type dateHandler struct{}

func (dateHandler) Type() string { return "Date" }

func (dateHandler) Cast(v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		y, m, day := d.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
	case string:
		t, err := time.ParseInLocation(dateLayout, d, time.UTC)
		if err != nil {
			return nil, castError(v, "Date")
		}
		return t, nil
	default:
		return nil, castError(v, "Date")
	}
}

func (dateHandler) Serialize(v any, enc Encoding) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, castError(v, "Date")
	}
	s := t.Format(dateLayout)
	if enc == EncodingLiteral {
		return quoteLiteral(s), nil
	}
	return s, nil
}

func (dateHandler) Deserialize(v any) (any, error) {
	return dateHandler{}.Cast(v)
}

// =============================================================================
// DateTime / DateTime64
// =============================================================================

// dateTimeHandler 处理 DateTime 与 DateTime64(P[, TZ])。
// 标准内存表示为 time.Time（秒级时截断到秒，precision > 0 时截断到对应精度）。
type dateTimeHandler struct {
	typeName  string
	precision int
	loc       *time.Location
}

func (h dateTimeHandler) Type() string { return h.typeName }

// layout 返回带相应小数位的解析/格式化布局。
func (h dateTimeHandler) layout() string {
	if h.precision <= 0 {
		return dateTimeLayout
	}
	return dateTimeLayout + "." + strings.Repeat("0", h.precision)
}

// truncate 把时间截断到声明精度，保证往返律成立。
func (h dateTimeHandler) truncate(t time.Time) time.Time {
	step := time.Second
	for i := 0; i < h.precision; i++ {
		step /= 10
	}
	return t.In(h.loc).Truncate(step)
}

func (h dateTimeHandler) Cast(v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return h.truncate(d), nil
	case string:
		t, err := time.ParseInLocation(h.layout(), d, h.loc)
		if err != nil {
			return nil, castError(v, h.typeName)
		}
		return t, nil
	case int64:
		return h.truncate(time.Unix(d, 0)), nil
	default:
		return nil, castError(v, h.typeName)
	}
}

func (h dateTimeHandler) Serialize(v any, enc Encoding) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, castError(v, h.typeName)
	}
	s := t.In(h.loc).Format(h.layout())
	if enc == EncodingLiteral {
		return quoteLiteral(s), nil
	}
	return s, nil
}

func (h dateTimeHandler) Deserialize(v any) (any, error) {
	return h.Cast(v)
}

// dateTimeFactory 构造 DateTime 或 DateTime('TZ')。
func dateTimeFactory(_ Resolver, node *Node) (Handler, error) {
	h := dateTimeHandler{typeName: node.String(), loc: time.UTC}
	switch len(node.Args) {
	case 0:
		return h, nil
	case 1:
		loc, err := parseTimezoneArg(node.Args[0].Name)
		if err != nil {
			return nil, err
		}
		h.loc = loc
		return h, nil
	default:
		return nil, arityError("DateTime", "at most one timezone", len(node.Args))
	}
}

// dateTime64Factory 构造 DateTime64(P) 或 DateTime64(P, 'TZ')。
func dateTime64Factory(_ Resolver, node *Node) (Handler, error) {
	if len(node.Args) < 1 || len(node.Args) > 2 {
		return nil, arityError("DateTime64", "one or two", len(node.Args))
	}

	precision, err := strconv.Atoi(node.Args[0].Name)
	if err != nil || precision < 0 || precision > 9 {
		return nil, fmt.Errorf("%w: DateTime64 precision %q out of range [0, 9]", ErrResolve, node.Args[0].Name)
	}

	h := dateTimeHandler{typeName: node.String(), precision: precision, loc: time.UTC}
	if len(node.Args) == 2 {
		loc, err := parseTimezoneArg(node.Args[1].Name)
		if err != nil {
			return nil, err
		}
		h.loc = loc
	}
	return h, nil
}

// parseTimezoneArg 解析引号包裹的时区参数（如 'Asia/Shanghai'）。
func parseTimezoneArg(arg string) (*time.Location, error) {
	name := strings.Trim(arg, "'")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrResolve, name)
	}
	return loc, nil
}
