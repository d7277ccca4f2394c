// Package opstat 提供客户端操作的共享统计计数器与工具函数。
//
// 本包是 internal 包，仅供 pkg/chclient、pkg/chpool 等包使用，
// 外部用户不应直接导入。
//
// 主要功能：
//   - 原子统计计数器（QueryCounter、InsertCounter、HealthCounter）
//   - 健康检查超时 context 辅助函数
//   - 慢查询检测器（同步钩子）
package opstat
