package chpool

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// Pool
// ============================================================================

// ConnFactory 构造一个未建连的 Conn。
type ConnFactory func() (*Conn, error)

// Pool 是有界 ClickHouse 连接池。
//
// 全部可变状态由单一互斥锁保护，锁绝不跨越任何 I/O 调用：
// 建连与断连都在锁外进行，临界区只做集合变更。
type Pool struct {
	mu        sync.Mutex
	cond      *sync.Cond
	available []*Conn             // 空闲连接，LIFO 复用
	inUse     map[*Conn]struct{}  // 已借出的连接
	pending   int                 // 正在锁外建连、已预留容量的数量
	factory   ConnFactory
	opts      poolOptions
}

// Stats 是连接池的状态快照。
type Stats struct {
	// Size 是连接池的容量上限。
	Size int

	// Available 是当前空闲连接数。
	Available int

	// InUse 是当前已借出的连接数（含正在建连的预留）。
	InUse int
}

// NewPool 构造连接池。连接按需懒建，构造时不做任何 I/O。
func NewPool(factory ConnFactory, opts ...PoolOption) (*Pool, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	o := defaultPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.size <= 0 {
		return nil, ErrInvalidSize
	}

	p := &Pool{
		available: make([]*Conn, 0, o.size),
		inUse:     make(map[*Conn]struct{}, o.size),
		factory:   factory,
		opts:      o,
	}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Checkout 借出一个健康连接。
//
// 顺序：先复用空闲连接（丢弃不健康或陈旧的），再在容量允许时新建，
// 最后阻塞等待归还。等待超过 checkout 超时返回 ErrPoolTimeout；
// ctx 取消时返回 ctx.Err()。
func (p *Pool) Checkout(ctx context.Context) (*Conn, error) {
	if p == nil {
		return nil, ErrPoolClosed
	}

	// 唤醒回调持锁广播，保证不会落在等待者"检查截止时间"与
	// "进入 Wait"之间而丢失。
	deadline := time.Now().Add(p.opts.checkoutTimeout)
	wake := time.AfterFunc(p.opts.checkoutTimeout, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer wake.Stop()
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	for {
		if err := ctx.Err(); err != nil {
			p.mu.Unlock()
			return nil, err
		}

		// 1. 复用空闲连接，不健康或陈旧的就地销毁。
		if conn := p.popAvailable(); conn != nil {
			p.inUse[conn] = struct{}{}
			p.mu.Unlock()
			return conn, nil
		}

		// 2. 容量未满则新建。建连在锁外进行，pending 预留名额
		//    防止并发 Checkout 超建。
		if p.total() < p.opts.size {
			p.pending++
			p.mu.Unlock()
			return p.dial(ctx)
		}

		// 3. 等待归还或超时。
		if !time.Now().Before(deadline) {
			inUse := len(p.inUse) + p.pending
			p.mu.Unlock()
			return nil, &TimeoutError{Wait: p.opts.checkoutTimeout, InUse: inUse}
		}
		p.cond.Wait()
	}
}

// Checkin 归还连接。健康且未陈旧的回到空闲集合，否则销毁。
// 归还不属于本池的连接是无害的空操作。
func (p *Pool) Checkin(conn *Conn) {
	if p == nil || conn == nil {
		return
	}

	p.mu.Lock()
	if _, ok := p.inUse[conn]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.inUse, conn)

	if conn.Healthy() && !conn.Stale(p.opts.maxIdle) {
		conn.touch()
		p.available = append(p.available, conn)
		p.cond.Signal()
		p.mu.Unlock()
		return
	}

	// 不健康或陈旧：总数下降，唤醒等待者去补建。
	p.cond.Signal()
	p.mu.Unlock()

	p.opts.logger.Debug("chpool: discarding connection on checkin",
		"healthy", conn.Healthy(), "idle", conn.IdleTime())
	conn.Close()
}

// WithConn 借出连接执行 fn，defer 中保证归还。
// 这是使用池化连接的推荐方式。
func (p *Pool) WithConn(ctx context.Context, fn func(*Conn) error) error {
	conn, err := p.Checkout(ctx)
	if err != nil {
		return err
	}
	defer p.Checkin(conn)
	return fn(conn)
}

// Cleanup 销毁空闲时长超过 maxIdle 的连接，返回销毁数量。
// maxIdle <= 0 时使用构造时配置的值。
func (p *Pool) Cleanup(maxIdle time.Duration) int {
	if p == nil {
		return 0
	}
	if maxIdle <= 0 {
		maxIdle = p.opts.maxIdle
	}

	p.mu.Lock()
	kept := p.available[:0]
	var stale []*Conn
	for _, conn := range p.available {
		if conn.Stale(maxIdle) || !conn.Healthy() {
			stale = append(stale, conn)
		} else {
			kept = append(kept, conn)
		}
	}
	p.available = kept
	if len(stale) > 0 {
		p.cond.Broadcast()
	}
	p.mu.Unlock()

	for _, conn := range stale {
		conn.Close()
	}
	return len(stale)
}

// Shutdown 断开池中全部连接（含已借出的）并清空集合。
// 之后的 Checkout 会按需重新建连。
func (p *Pool) Shutdown() {
	if p == nil {
		return
	}

	p.mu.Lock()
	conns := make([]*Conn, 0, len(p.available)+len(p.inUse))
	conns = append(conns, p.available...)
	for conn := range p.inUse {
		conns = append(conns, conn)
	}
	p.available = p.available[:0]
	p.inUse = make(map[*Conn]struct{}, p.opts.size)
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	p.opts.logger.Debug("chpool: pool shut down", "closed", len(conns))
}

// Stats 返回连接池状态快照。
func (p *Pool) Stats() Stats {
	if p == nil {
		return Stats{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:      p.opts.size,
		Available: len(p.available),
		InUse:     len(p.inUse) + p.pending,
	}
}

// ============================================================================
// 内部方法
// ============================================================================

// popAvailable 弹出一个健康空闲连接，锁内调用。
// 不健康或陈旧的连接就地丢弃；Conn.Close 只重置本地 Transport，
// 不做网络 I/O，允许在锁内调用。
func (p *Pool) popAvailable() *Conn {
	for len(p.available) > 0 {
		n := len(p.available) - 1
		conn := p.available[n]
		p.available = p.available[:n]
		if conn.Healthy() && !conn.Stale(p.opts.maxIdle) {
			return conn
		}
		conn.Close()
		p.opts.logger.Debug("chpool: discarding idle connection",
			"healthy", conn.Healthy(), "idle", conn.IdleTime())
	}
	return nil
}

// dial 在锁外建连，pending 名额已在锁内预留。
func (p *Pool) dial(ctx context.Context) (*Conn, error) {
	conn, err := p.factory()
	if err == nil {
		err = conn.Connect(ctx)
	}

	p.mu.Lock()
	p.pending--
	if err != nil {
		p.cond.Signal()
		p.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	p.inUse[conn] = struct{}{}
	p.mu.Unlock()
	return conn, nil
}

// total 返回池中连接总数（含建连中的预留），锁内调用。
func (p *Pool) total() int {
	return len(p.available) + len(p.inUse) + p.pending
}
