// Package collector holds the host probes run at the start of every
// persistence phase.
package collector

import "context"

// Collector 采集器核心接口（所有探测器必须实现）
type Collector interface {
	Name() string                      // 采集器名称（唯一标识）
	Init() error                       // 初始化（预检查资源）
	Collect(ctx context.Context) error // 采集数据（更新指标）
	Close() error                      // 关闭（释放资源）
}
