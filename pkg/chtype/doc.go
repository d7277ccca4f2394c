// Package chtype 提供 ClickHouse 类型名的解析与类型处理器体系。
//
// # 设计理念
//
// chtype 把一个类型名字符串（如 "Map(String, Array(Nullable(UInt64)))"）
// 处理为两层结构：
//   - Node：递归下降解析得到的类型 AST，支持任意嵌套深度
//   - Handler：由 Registry 按 AST 自底向上组装的可复用转换器
//
// Handler 提供三个操作：
//   - Cast：把输入值规范化为该类型的标准内存表示，非法值返回 ErrCast
//   - Serialize：产出写入侧表示（SQL 字面量或 JSON 兼容值，由调用点选择）
//   - Deserialize：把响应体中读到的值还原为标准内存表示
//
// 对每个合法值 v 满足往返律 Deserialize(Serialize(Cast(v))) == Cast(v)，
// 唯一例外是 Float32 的在途精度损失（已在 floatHandler 文档中说明）。
//
// # 注册表
//
// Registry 是显式构造的对象而非包级全局状态，多个独立配置的客户端
// （如指向不同集群）可以持有各自的注册表，自定义类型互不污染。
// ResolveString 内置 LRU 缓存，同一类型字符串只解析和组装一次。
//
// # 快速开始
//
//	reg := chtype.NewRegistry()
//	h, err := reg.ResolveString("Nullable(Int32)")
//	v, _ := h.Cast("42")        // int64(42)
//	s, _ := h.Serialize(v, chtype.EncodingLiteral) // "42"
package chtype
