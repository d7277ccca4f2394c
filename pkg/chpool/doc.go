// Package chpool 提供到 ClickHouse HTTP 接口的连接与有界连接池。
//
// # 连接
//
// Conn 持有一条独立的 HTTP keep-alive 通道（专属 http.Client，
// Transport 仅保留单个空闲连接），提供 Post/PostStream/Ping 以及
// 供连接池使用的健康与陈旧判定。传输层失败（连接被拒、超时）与
// 应用层失败（HTTP 4xx/5xx）严格区分：前者返回 *TransportError，
// 后者作为普通 *Response 交由调用方解读。
//
// # 连接池
//
// Pool 维护一个有界连接集合，分为 available 与 in-use 两个互斥集合，
// 不变式 |available| + |inUse| <= size 恒成立。全部可变状态由单一互斥锁
// 保护，锁只覆盖集合变更的短临界区，绝不跨越任何 I/O 调用；
// 条件变量仅用于阻塞/唤醒等待空位的 Checkout 调用方。
//
// Checkout 的顺序是"先复用、再新建、最后等待"：
//  1. 从 available 弹出并丢弃未通过健康/陈旧检查的连接
//  2. 有空余容量时新建连接（建连在锁外进行）
//  3. 否则阻塞等待，超时抛出 ErrPoolTimeout
//
// WithConn 是使用池化连接的唯一推荐方式：checkout、执行、
// defer 中保证归还；手动 Checkout/Checkin 在异常路径下容易泄漏。
//
// Checkin 对归还的连接做健康门控：不健康或陈旧的连接被销毁并从
// 池中剔除（总数下降，后续 Checkout 可补建），绝不回到 available。
package chpool
