package chclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/chkit/internal/opstat"
	"github.com/omeyang/chkit/pkg/chmetrics"
)

// Insert 以 JSONEachRow 格式批量写入 rows 到 table。
//
// 空行集立即返回 ErrEmptyRows，不发起任何网络调用。列未显式给出时
// 从首行的键按字典序推断。非幂等操作：只有确定发生在请求发出之前的
// 错误才会重试，且每次尝试携带全新 query_id 供服务端去重。
func (c *Client) Insert(ctx context.Context, table string, rows []map[string]any, opts InsertOptions) error {
	if c == nil || c.closed.Load() {
		return ErrClosed
	}
	if len(rows) == 0 {
		return ErrEmptyRows
	}

	columns := opts.Columns
	if len(columns) == 0 {
		columns = inferColumns(rows[0])
	}

	body, err := encodeRows(rows, columns)
	if err != nil {
		return err
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) FORMAT JSONEachRow",
		table, strings.Join(columns, ", "))

	ctx, span := chmetrics.Start(ctx, c.observer, chmetrics.SpanOptions{
		Component: "chclient",
		Operation: "insert",
		Kind:      chmetrics.KindClient,
		Attrs:     []chmetrics.Attr{chmetrics.String("table", table)},
	})

	start := time.Now()
	err = c.exec.Do(ctx, false, func(ctx context.Context, queryID string) error {
		params := c.queryParams(opts.Settings, queryID)
		params.Set("query", insertSQL)
		resp, err := c.post(ctx, params, body)
		if err != nil {
			return err
		}
		// 写入错误绝不吞掉。
		return checkStatus(resp, insertSQL)
	})
	duration := opstat.MeasureOperation(start)

	if err != nil {
		c.inserts.IncError()
		span.End(chmetrics.Result{Err: err})
		return err
	}

	c.inserts.IncBatch(int64(len(rows)))
	span.End(chmetrics.Result{Attrs: []chmetrics.Attr{
		chmetrics.Int("rows", len(rows)),
	}})
	c.slow.MaybeSlowQuery(ctx, SlowQueryInfo{
		SQL:      insertSQL,
		Duration: duration,
		Rows:     len(rows),
	}, duration)
	return nil
}

// inferColumns 从首行的键推断写入列，按字典序保证确定性。
func inferColumns(row map[string]any) []string {
	columns := make([]string, 0, len(row))
	for k := range row {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// encodeRows 把行集编码为换行分隔的 JSON 对象，每行只含选定列。
func encodeRows(rows []map[string]any, columns []string) ([]byte, error) {
	lines := make([]string, len(rows))
	for i, row := range rows {
		obj := make(map[string]any, len(columns))
		for _, col := range columns {
			obj[col] = serializeValue(row[col])
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("chclient: encode row %d: %w", i, err)
		}
		lines[i] = string(data)
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// serializeValue 是写入值的封闭转换表：时间与高精度数值类型
// 显式转换，其余值原样交给 JSON 编码。
func serializeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return formatDateTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return formatDateTime(*x)
	case uuid.UUID:
		return x.String()
	case *big.Int:
		if x == nil {
			return nil
		}
		return json.Number(x.String())
	case *big.Float:
		if x == nil {
			return nil
		}
		return json.Number(x.Text('f', -1))
	case *big.Rat:
		if x == nil {
			return nil
		}
		return json.Number(x.FloatString(18))
	case time.Duration:
		return x.Seconds()
	default:
		return v
	}
}

// formatDateTime 产出 ClickHouse 接受的时间文本，
// 纳秒非零时带毫秒精度。
func formatDateTime(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.000")
	}
	return t.Format("2006-01-02 15:04:05")
}
