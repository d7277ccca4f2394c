package chclient

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// 哨兵错误
// ============================================================================

var (
	// ErrConfig 表示客户端配置不合法。
	ErrConfig = errors.New("chclient: invalid configuration")

	// ErrEmptyRows 表示 Insert 收到了空行集。在任何网络调用之前返回。
	ErrEmptyRows = errors.New("chclient: empty rows")

	// ErrClosed 表示客户端已关闭。
	ErrClosed = errors.New("chclient: client is closed")

	// ErrQuery 是所有服务端查询错误的基哨兵。
	ErrQuery = errors.New("chclient: query failed")

	// ErrUnknownTable 对应 ClickHouse 错误码 60。
	ErrUnknownTable = errors.New("chclient: unknown table")

	// ErrUnknownColumn 对应 ClickHouse 错误码 16。
	ErrUnknownColumn = errors.New("chclient: unknown column")

	// ErrUnknownDatabase 对应 ClickHouse 错误码 81。
	ErrUnknownDatabase = errors.New("chclient: unknown database")

	// ErrSyntax 对应 ClickHouse 错误码 62。
	ErrSyntax = errors.New("chclient: syntax error")

	// ErrQueryTimeout 对应 ClickHouse 错误码 159。
	ErrQueryTimeout = errors.New("chclient: query timed out")

	// ErrAuthentication 对应 ClickHouse 错误码 516。
	ErrAuthentication = errors.New("chclient: authentication failed")
)

// maxSQLInError 是错误消息中 SQL 文本的截断长度，
// 防止病态长查询导致错误消息无界膨胀。
const maxSQLInError = 1000

// ClickHouse 错误体的匹配模式。
var (
	codePattern    = regexp.MustCompile(`Code:\s*(\d+)`)
	messagePattern = regexp.MustCompile(`DB::Exception:\s*(.+?)(?:\s*\(version|$)`)
)

// codeSentinels 把 ClickHouse 错误码映射到具体哨兵。
var codeSentinels = map[int]error{
	60:  ErrUnknownTable,
	16:  ErrUnknownColumn,
	81:  ErrUnknownDatabase,
	62:  ErrSyntax,
	159: ErrQueryTimeout,
	516: ErrAuthentication,
}

// ============================================================================
// QueryError
// ============================================================================

// QueryError 携带一次服务端查询失败的完整上下文：
// ClickHouse 错误码、HTTP 状态码、服务端消息与截断后的 SQL。
//
// errors.Is 可匹配 ErrQuery 以及错误码对应的具体哨兵
// （如 Code 60 时匹配 ErrUnknownTable）。
type QueryError struct {
	// Code 是 ClickHouse 错误码，响应体中未匹配到时为 0。
	Code int

	// HTTPStatus 是响应的 HTTP 状态码。
	HTTPStatus int

	// Message 是从响应体提取的服务端错误消息。
	Message string

	// SQL 是触发错误的语句，超长时已截断。
	SQL string
}

// Error 实现 error 接口。
func (e *QueryError) Error() string {
	var sb strings.Builder
	sb.WriteString("chclient: query failed")
	if e.Code != 0 {
		sb.WriteString(" (code ")
		sb.WriteString(strconv.Itoa(e.Code))
		sb.WriteString(", http ")
		sb.WriteString(strconv.Itoa(e.HTTPStatus))
		sb.WriteString(")")
	} else {
		sb.WriteString(" (http ")
		sb.WriteString(strconv.Itoa(e.HTTPStatus))
		sb.WriteString(")")
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.SQL != "" {
		sb.WriteString(" | sql: ")
		sb.WriteString(e.SQL)
	}
	return sb.String()
}

// Unwrap 返回错误码对应的具体哨兵，未映射的错误码返回 ErrQuery。
func (e *QueryError) Unwrap() error {
	if s, ok := codeSentinels[e.Code]; ok {
		return s
	}
	return ErrQuery
}

// Is 使 errors.Is(err, ErrQuery) 对所有 QueryError 成立。
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// Retryable 报告该错误是否可重试：服务端故障（5xx）与限流（429）可重试，
// 其余 4xx（语法错误、表不存在等）重试无意义。
func (e *QueryError) Retryable() bool {
	return e.HTTPStatus >= 500 || e.HTTPStatus == 429
}

// newQueryError 从非 200 响应体构造 QueryError。
func newQueryError(httpStatus int, body []byte, sql string) *QueryError {
	// 去除首尾空白再匹配，使 $ 分支能命中无 (version 结尾的消息。
	text := strings.TrimSpace(string(body))

	qe := &QueryError{
		HTTPStatus: httpStatus,
		SQL:        truncateSQL(sql),
	}
	if m := codePattern.FindStringSubmatch(text); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			qe.Code = code
		}
	}
	if m := messagePattern.FindStringSubmatch(text); m != nil {
		qe.Message = strings.TrimSpace(m[1])
	} else {
		qe.Message = strings.TrimSpace(text)
	}
	return qe
}

// truncateSQL 将 SQL 截断到 maxSQLInError 字符。
func truncateSQL(sql string) string {
	if len(sql) <= maxSQLInError {
		return sql
	}
	return sql[:maxSQLInError] + "..."
}

// configError 以 ErrConfig 为前缀包装字段级校验失败。
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
