// Package chretry 提供网络操作的重试执行器：有界重试、指数退避加抖动、
// 幂等性门控，以及每次尝试独立生成的幂等令牌（query id）。
//
// # 设计理念
//
// 底层使用 [avast/retry-go/v5] 执行重试循环；chretry 在其上固化本库的策略：
//   - 错误是否可重试是错误种类到布尔值的纯函数（IsRetryable），
//     不与控制流交织；错误类型通过实现 RetryableError 接口自描述
//   - 非幂等操作（如无副作用保证的插入）只重试"发送前失败"
//     （PreExecutionError，例如连接被拒、尚未写出任何请求字节）
//   - 每次尝试传入新生成的 UUID 令牌，作为 query_id 交给服务端去重，
//     这是非幂等操作敢于重试的前提
//   - 重试对调用方透明：成功时不可见，耗尽后原始错误原样抛出
//
// # 退避
//
// 第 k 次失败后等待 min(maxDelay, initialDelay·multiplier^k)，
// 再按配置的抖动策略调整：JitterNone 不抖动；JitterFull 在 [0, d] 均匀取值；
// JitterEqual 取 d/2 + [0, d/2] 均匀值。随机源为 crypto/rand。
//
// # 熔断组合
//
// BreakerRetryer 在每次尝试外再套一层 sony/gobreaker 熔断器：
// 连续失败触发熔断后，剩余重试立即短路，防止对故障服务端持续施压。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package chretry
