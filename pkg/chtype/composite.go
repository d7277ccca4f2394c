package chtype

import (
	"fmt"
	"reflect"
	"strings"
)

// =============================================================================
// Array
// =============================================================================

// arrayHandler 处理 Array(T)，标准内存表示为 []any（元素为内层标准表示）。
type arrayHandler struct {
	typeName string
	elem     Handler
}

func (h *arrayHandler) Type() string { return h.typeName }

func (h *arrayHandler) Cast(v any) (any, error) {
	items, err := toAnySlice(v)
	if err != nil {
		return nil, castError(v, h.typeName)
	}
	out := make([]any, len(items))
	for i, item := range items {
		cast, err := h.elem.Cast(item)
		if err != nil {
			return nil, err
		}
		out[i] = cast
	}
	return out, nil
}

func (h *arrayHandler) Serialize(v any, enc Encoding) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, castError(v, h.typeName)
	}

	if enc == EncodingJSON {
		out := make([]any, len(items))
		for i, item := range items {
			s, err := h.elem.Serialize(item, enc)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := h.elem.Serialize(item, enc)
		if err != nil {
			return nil, err
		}
		fmt.Fprint(&b, s)
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (h *arrayHandler) Deserialize(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, castError(v, h.typeName)
	}
	out := make([]any, len(items))
	for i, item := range items {
		d, err := h.elem.Deserialize(item)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// toAnySlice 把任意切片值归一化为 []any。
func toAnySlice(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("not a slice")
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func arrayFactory(res Resolver, node *Node) (Handler, error) {
	if len(node.Args) != 1 {
		return nil, arityError("Array", "exactly one type", len(node.Args))
	}
	elem, err := res.Resolve(node.Args[0])
	if err != nil {
		return nil, err
	}
	return &arrayHandler{typeName: node.String(), elem: elem}, nil
}

// =============================================================================
// Map
// =============================================================================

// mapHandler 处理 Map(K, V)，标准内存表示为 map[any]any。
type mapHandler struct {
	typeName string
	key      Handler
	value    Handler
}

func (h *mapHandler) Type() string { return h.typeName }

func (h *mapHandler) Cast(v any) (any, error) {
	out := make(map[any]any)

	switch m := v.(type) {
	case map[any]any:
		for k, val := range m {
			if err := h.castEntry(out, k, val); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for k, val := range m {
			if err := h.castEntry(out, k, val); err != nil {
				return nil, err
			}
		}
	default:
		return nil, castError(v, h.typeName)
	}
	return out, nil
}

func (h *mapHandler) castEntry(out map[any]any, k, v any) error {
	ck, err := h.key.Cast(k)
	if err != nil {
		return err
	}
	cv, err := h.value.Cast(v)
	if err != nil {
		return err
	}
	out[ck] = cv
	return nil
}

func (h *mapHandler) Serialize(v any, enc Encoding) (any, error) {
	m, ok := v.(map[any]any)
	if !ok {
		return nil, castError(v, h.typeName)
	}

	if enc == EncodingJSON {
		// JSONEachRow 中 Map 以对象表达，键序列化为字符串
		out := make(map[string]any, len(m))
		for k, val := range m {
			sk, err := h.key.Serialize(k, enc)
			if err != nil {
				return nil, err
			}
			sv, err := h.value.Serialize(val, enc)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(sk)] = sv
		}
		return out, nil
	}

	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, val := range m {
		if !first {
			b.WriteString(", ")
		}
		first = false
		sk, err := h.key.Serialize(k, enc)
		if err != nil {
			return nil, err
		}
		sv, err := h.value.Serialize(val, enc)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "%v: %v", sk, sv)
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (h *mapHandler) Deserialize(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, castError(v, h.typeName)
	}
	out := make(map[any]any, len(m))
	for k, val := range m {
		dk, err := h.key.Deserialize(k)
		if err != nil {
			return nil, err
		}
		dv, err := h.value.Deserialize(val)
		if err != nil {
			return nil, err
		}
		out[dk] = dv
	}
	return out, nil
}

func mapFactory(res Resolver, node *Node) (Handler, error) {
	if len(node.Args) != 2 {
		return nil, arityError("Map", "exactly two types", len(node.Args))
	}
	key, err := res.Resolve(node.Args[0])
	if err != nil {
		return nil, err
	}
	value, err := res.Resolve(node.Args[1])
	if err != nil {
		return nil, err
	}
	return &mapHandler{typeName: node.String(), key: key, value: value}, nil
}

// =============================================================================
// Tuple
// =============================================================================

// tupleHandler 处理 Tuple(T1, T2, ...)，标准内存表示为定长 []any。
type tupleHandler struct {
	typeName string
	elems    []Handler
}

func (h *tupleHandler) Type() string { return h.typeName }

func (h *tupleHandler) Cast(v any) (any, error) {
	items, err := toAnySlice(v)
	if err != nil || len(items) != len(h.elems) {
		return nil, castError(v, h.typeName)
	}
	out := make([]any, len(items))
	for i, item := range items {
		cast, err := h.elems[i].Cast(item)
		if err != nil {
			return nil, err
		}
		out[i] = cast
	}
	return out, nil
}

func (h *tupleHandler) Serialize(v any, enc Encoding) (any, error) {
	items, ok := v.([]any)
	if !ok || len(items) != len(h.elems) {
		return nil, castError(v, h.typeName)
	}

	if enc == EncodingJSON {
		out := make([]any, len(items))
		for i, item := range items {
			s, err := h.elems[i].Serialize(item, enc)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}

	var b strings.Builder
	b.WriteByte('(')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := h.elems[i].Serialize(item, enc)
		if err != nil {
			return nil, err
		}
		fmt.Fprint(&b, s)
	}
	b.WriteByte(')')
	return b.String(), nil
}

func (h *tupleHandler) Deserialize(v any) (any, error) {
	items, ok := v.([]any)
	if !ok || len(items) != len(h.elems) {
		return nil, castError(v, h.typeName)
	}
	out := make([]any, len(items))
	for i, item := range items {
		d, err := h.elems[i].Deserialize(item)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func tupleFactory(res Resolver, node *Node) (Handler, error) {
	if len(node.Args) < 1 {
		return nil, arityError("Tuple", "at least one type", len(node.Args))
	}
	elems := make([]Handler, len(node.Args))
	for i, arg := range node.Args {
		elem, err := res.Resolve(arg)
		if err != nil {
			return nil, err
		}
		elems[i] = elem
	}
	return &tupleHandler{typeName: node.String(), elems: elems}, nil
}

// =============================================================================
// Nullable / LowCardinality
// =============================================================================

// nullableHandler 处理 Nullable(T)。
// nil 在三个操作中均短路：Deserialize(nil) == nil，
// Serialize(nil) 在字面量编码下为 "NULL"、JSON 编码下为 nil；
// 非空值全部委托内层处理器。
type nullableHandler struct {
	typeName string
	inner    Handler
}

func (h *nullableHandler) Type() string { return h.typeName }

func (h *nullableHandler) Cast(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return h.inner.Cast(v)
}

func (h *nullableHandler) Serialize(v any, enc Encoding) (any, error) {
	if v == nil {
		if enc == EncodingLiteral {
			return "NULL", nil
		}
		return nil, nil
	}
	return h.inner.Serialize(v, enc)
}

func (h *nullableHandler) Deserialize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return h.inner.Deserialize(v)
}

func nullableFactory(res Resolver, node *Node) (Handler, error) {
	if len(node.Args) != 1 {
		return nil, arityError("Nullable", "exactly one type", len(node.Args))
	}
	inner, err := res.Resolve(node.Args[0])
	if err != nil {
		return nil, err
	}
	return &nullableHandler{typeName: node.String(), inner: inner}, nil
}

// lowCardinalityHandler 是透明直通包装。
// LowCardinality 只影响服务端存储编码，客户端三个操作原样委托内层处理器，
// 保留此包装仅为 schema 声明对称性。
type lowCardinalityHandler struct {
	typeName string
	inner    Handler
}

func (h *lowCardinalityHandler) Type() string { return h.typeName }

func (h *lowCardinalityHandler) Cast(v any) (any, error) {
	return h.inner.Cast(v)
}

func (h *lowCardinalityHandler) Serialize(v any, enc Encoding) (any, error) {
	return h.inner.Serialize(v, enc)
}

func (h *lowCardinalityHandler) Deserialize(v any) (any, error) {
	return h.inner.Deserialize(v)
}

func lowCardinalityFactory(res Resolver, node *Node) (Handler, error) {
	if len(node.Args) != 1 {
		return nil, arityError("LowCardinality", "exactly one type", len(node.Args))
	}
	inner, err := res.Resolve(node.Args[0])
	if err != nil {
		return nil, err
	}
	return &lowCardinalityHandler{typeName: node.String(), inner: inner}, nil
}
