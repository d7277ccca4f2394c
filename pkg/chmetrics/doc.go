// Package chmetrics 提供客户端操作的统一可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// chmetrics 仅定义最小化接口：Observer/Span/Attr，
// 客户端代码只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈。
//
// # 使用示例
//
//	obs, _ := chmetrics.NewOTelObserver()
//	ctx, span := chmetrics.Start(ctx, obs, chmetrics.SpanOptions{
//		Component: "chclient",
//		Operation: "execute",
//		Kind:      chmetrics.KindClient,
//	})
//	defer span.End(chmetrics.Result{Err: err})
//
// # 指标命名
//
// 统一指标：
//   - chkit.operation.total
//   - chkit.operation.duration
//
// 统一属性：component / operation / status。
package chmetrics
