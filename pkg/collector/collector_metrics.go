package collector

import "github.com/prometheus/client_golang/prometheus"

// -------------------------- 磁盘探测器指标结构体 --------------------------
type StorageCollectorMetrics struct {
	freeBytes  *prometheus.GaugeVec // 空闲空间（字节）
	usageRatio *prometheus.GaugeVec // 磁盘使用率（0-1）
}
