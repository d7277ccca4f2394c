package chclient

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/omeyang/chkit/internal/opstat"
	"github.com/omeyang/chkit/pkg/chmetrics"
	"github.com/omeyang/chkit/pkg/chretry"
)

// formatSuffix 识别已带 FORMAT 子句的 SQL，避免重复追加。
var formatSuffix = regexp.MustCompile(`(?i)\bFORMAT\s+\w+\s*;?\s*$`)

// appendFormat 在 SQL 末尾追加 FORMAT 子句。已带 FORMAT 的语句保持原样。
func appendFormat(sql string, format Format) string {
	trimmed := strings.TrimRight(strings.TrimSpace(sql), ";")
	if formatSuffix.MatchString(trimmed) {
		return trimmed
	}
	return trimmed + " FORMAT " + string(format)
}

// Execute 执行查询并把响应解析为 Result。
//
// 幂等操作：按配置的重试策略全量重试，每次尝试携带全新 query_id。
// 非 200 响应先解析为 *QueryError 返回，响应体绝不会被当作结果解析。
func (c *Client) Execute(ctx context.Context, sql string, opts QueryOptions) (*Result, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClosed
	}

	format := opts.Format
	if format == "" {
		format = FormatJSONCompact
	}
	full := appendFormat(sql, format)

	ctx, span := chmetrics.Start(ctx, c.observer, chmetrics.SpanOptions{
		Component: "chclient",
		Operation: "execute",
		Kind:      chmetrics.KindClient,
	})

	start := time.Now()
	var result *Result
	err := c.exec.Do(ctx, true, func(ctx context.Context, queryID string) error {
		resp, err := c.post(ctx, c.queryParams(opts.Settings, queryID), []byte(full))
		if err != nil {
			return err
		}
		if err := checkStatus(resp, sql); err != nil {
			return err
		}
		r, err := parseResult(resp.Body, format, c.registry)
		if err != nil {
			// 200 响应的解析与类型转换失败是确定性错误，重发请求不会改变结果
			return chretry.Permanent(err)
		}
		result = r
		return nil
	})
	duration := opstat.MeasureOperation(start)

	c.queries.IncQuery()
	if err != nil {
		c.queries.IncQueryError()
		span.End(chmetrics.Result{Err: err})
		return nil, err
	}

	span.End(chmetrics.Result{Attrs: []chmetrics.Attr{
		chmetrics.Int("rows", result.Len()),
		chmetrics.Duration("duration", duration),
	}})
	c.slow.MaybeSlowQuery(ctx, SlowQueryInfo{
		SQL:      sql,
		Duration: duration,
		Rows:     result.Len(),
	}, duration)
	return result, nil
}

// Command 执行 DDL/维护语句并丢弃响应体。
// 请求路径与 Execute 相同，但不追加 FORMAT 子句也不解析结果。
func (c *Client) Command(ctx context.Context, sql string, opts QueryOptions) error {
	if c == nil || c.closed.Load() {
		return ErrClosed
	}

	ctx, span := chmetrics.Start(ctx, c.observer, chmetrics.SpanOptions{
		Component: "chclient",
		Operation: "command",
		Kind:      chmetrics.KindClient,
	})

	start := time.Now()
	err := c.exec.Do(ctx, true, func(ctx context.Context, queryID string) error {
		resp, err := c.post(ctx, c.queryParams(opts.Settings, queryID), []byte(sql))
		if err != nil {
			return err
		}
		return checkStatus(resp, sql)
	})
	duration := opstat.MeasureOperation(start)

	c.queries.IncQuery()
	if err != nil {
		c.queries.IncQueryError()
		span.End(chmetrics.Result{Err: err})
		return err
	}

	span.End(chmetrics.Result{})
	c.slow.MaybeSlowQuery(ctx, SlowQueryInfo{SQL: sql, Duration: duration}, duration)
	return nil
}
