package chclient

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omeyang/chkit/pkg/chpool"
)

// 流式读取的扫描缓冲上限，单行超过即报错而非无界吃内存。
const (
	streamScanBuffer  = 64 * 1024
	streamMaxLineSize = 16 * 1024 * 1024
)

// Stream 是一次流式查询的增量迭代器。
//
// 行按 JSONEachRow 逐行解析，内存占用与批大小成正比而非结果集大小。
// Stream 独占一条非池化连接，Close 后连接随之释放。
// 非并发安全：一个 Stream 只应由一个 goroutine 消费。
//
// 使用方式：
//
//	stream, err := cli.StreamExecute(ctx, "SELECT * FROM big", nil)
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//		row := stream.Row()
//		...
//	}
//	return stream.Err()
type Stream struct {
	conn    *chpool.Conn
	body    io.ReadCloser
	scanner *bufio.Scanner

	row map[string]any
	err error

	closeOnce sync.Once
}

// StreamExecute 在专属（非池化）连接上执行查询并流式返回行。
//
// 流式读取不参与重试：迭代器一旦开始消费就无法透明重放。
// 非 200 响应在返回 Stream 之前就以 *QueryError 形式暴露。
func (c *Client) StreamExecute(ctx context.Context, sql string, settings map[string]string) (*Stream, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClosed
	}

	conn, err := chpool.NewConn(chpool.ConnConfig{
		BaseURL:        c.cfg.baseURL(),
		Username:       c.cfg.Username,
		Password:       c.cfg.Password,
		ConnectTimeout: c.cfg.ConnectTimeout,
		ReadTimeout:    c.cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	full := appendFormat(sql, "JSONEachRow")
	params := c.queryParams(settings, uuid.NewString())

	resp, err := conn.PostStream(ctx, "/", params, nil, strings.NewReader(full))
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp.Status != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, streamMaxLineSize))
		_ = resp.Body.Close()
		conn.Close()
		return nil, newQueryError(resp.Status, body, sql)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, streamScanBuffer), streamMaxLineSize)

	return &Stream{
		conn:    conn,
		body:    resp.Body,
		scanner: scanner,
	}, nil
}

// Next 推进到下一行，没有更多行或出错时返回 false。
// 返回 false 后必须检查 Err 区分正常结束与失败。
func (s *Stream) Next() bool {
	if s == nil || s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row map[string]any
		if err := decodeNumber(line, &row); err != nil {
			s.err = err
			return false
		}
		s.row = row
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = err
	}
	return false
}

// Row 返回当前行。只在 Next 返回 true 后有效。
func (s *Stream) Row() map[string]any {
	if s == nil {
		return nil
	}
	return s.row
}

// NextBatch 读取至多 n 行。返回空切片表示流已结束。
func (s *Stream) NextBatch(n int) ([]map[string]any, error) {
	if s == nil {
		return nil, nil
	}
	batch := make([]map[string]any, 0, n)
	for len(batch) < n && s.Next() {
		batch = append(batch, s.row)
	}
	if s.err != nil {
		return nil, s.err
	}
	return batch, nil
}

// Err 返回迭代期间遇到的首个错误。正常耗尽时为 nil。
func (s *Stream) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// Close 终止流并释放专属连接。幂等，可在任何时刻调用。
func (s *Stream) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		_ = s.body.Close()
		s.conn.Close()
	})
}
