package chclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/omeyang/chkit/pkg/chtype"
)

// ============================================================================
// Result
// ============================================================================

// Statistics 是服务端随响应返回的执行统计。
type Statistics struct {
	Elapsed   float64 `json:"elapsed"`
	RowsRead  int64   `json:"rows_read"`
	BytesRead int64   `json:"bytes_read"`
}

// Result 是一次已完成查询的不可变快照：有序列名、与之一一对应的
// ClickHouse 类型串、以及已反序列化的行。构造后不再修改。
type Result struct {
	// Columns 是列名，顺序与响应 meta 一致。
	Columns []string

	// Types 是列的 ClickHouse 类型串，与 Columns 一一对应。
	Types []string

	// Rows 是已反序列化的行，每行的值顺序与 Columns 一致。
	Rows [][]any

	// Statistics 是服务端执行统计，响应未携带时为零值。
	Statistics Statistics
}

// Len 返回行数。
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnIndex 返回列名对应的下标，不存在时返回 -1。
func (r *Result) ColumnIndex(name string) int {
	if r == nil {
		return -1
	}
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value 返回第 row 行 name 列的值。越界或列不存在返回 nil。
func (r *Result) Value(row int, name string) any {
	i := r.ColumnIndex(name)
	if i < 0 || row < 0 || row >= r.Len() {
		return nil
	}
	return r.Rows[row][i]
}

// ============================================================================
// 响应体解析
// ============================================================================

type responseMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type responseEnvelope struct {
	Meta       []responseMeta  `json:"meta"`
	Data       json.RawMessage `json:"data"`
	Statistics *Statistics     `json:"statistics"`
}

// parseResult 解析 200 响应体。
// 数值一律以 json.Number 读入再交由类型处理器反序列化，
// 避免 float64 中转造成的 Int64/UInt64 精度损失。
func parseResult(body []byte, format Format, registry *chtype.Registry) (*Result, error) {
	var env responseEnvelope
	if err := decodeNumber(body, &env); err != nil {
		return nil, fmt.Errorf("chclient: malformed response body: %w", err)
	}

	columns := make([]string, len(env.Meta))
	types := make([]string, len(env.Meta))
	handlers := make([]chtype.Handler, len(env.Meta))
	for i, m := range env.Meta {
		columns[i] = m.Name
		types[i] = m.Type
		h, err := registry.ResolveString(m.Type)
		if err != nil {
			return nil, fmt.Errorf("chclient: column %q: %w", m.Name, err)
		}
		handlers[i] = h
	}

	var rows [][]any
	var err error
	switch format {
	case FormatJSON:
		rows, err = parseObjectRows(env.Data, columns, handlers)
	default:
		rows, err = parseArrayRows(env.Data, columns, handlers)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns, Types: types, Rows: rows}
	if env.Statistics != nil {
		res.Statistics = *env.Statistics
	}
	return res, nil
}

// parseArrayRows 解析 JSONCompact 的数组行。
func parseArrayRows(data json.RawMessage, columns []string, handlers []chtype.Handler) ([][]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw [][]any
	if err := decodeNumber(data, &raw); err != nil {
		return nil, fmt.Errorf("chclient: malformed data rows: %w", err)
	}

	rows := make([][]any, len(raw))
	for i, rawRow := range raw {
		if len(rawRow) != len(handlers) {
			return nil, fmt.Errorf("chclient: row %d has %d values, want %d",
				i, len(rawRow), len(handlers))
		}
		row := make([]any, len(rawRow))
		for j, v := range rawRow {
			dv, err := handlers[j].Deserialize(v)
			if err != nil {
				return nil, fmt.Errorf("chclient: row %d column %q: %w", i, columns[j], err)
			}
			row[j] = dv
		}
		rows[i] = row
	}
	return rows, nil
}

// parseObjectRows 解析 JSON 格式的对象行，按 meta 顺序转成数组行，
// 与 JSONCompact 路径产出同一内部形态。
func parseObjectRows(data json.RawMessage, columns []string, handlers []chtype.Handler) ([][]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []map[string]any
	if err := decodeNumber(data, &raw); err != nil {
		return nil, fmt.Errorf("chclient: malformed data rows: %w", err)
	}

	rows := make([][]any, len(raw))
	for i, obj := range raw {
		row := make([]any, len(columns))
		for j, name := range columns {
			dv, err := handlers[j].Deserialize(obj[name])
			if err != nil {
				return nil, fmt.Errorf("chclient: row %d column %q: %w", i, name, err)
			}
			row[j] = dv
		}
		rows[i] = row
	}
	return rows, nil
}

// decodeNumber 以 UseNumber 模式解码 JSON。
func decodeNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
