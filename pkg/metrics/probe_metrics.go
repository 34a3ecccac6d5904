package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewStorageFreeBytes 磁盘剩余空间（字节）
// 标签说明：path 为被探测的目录（数据库目录）
func (m *MetricFactory) NewStorageFreeBytes() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_free_bytes",
		Help:      "Free bytes on the filesystem holding the path",
	}, []string{"path"})
	m.reg.MustRegister(g)
	return g
}

// NewStorageUsageRatio 磁盘使用率（0-1）
func (m *MetricFactory) NewStorageUsageRatio() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_usage_ratio",
		Help:      "Used ratio of the filesystem holding the path",
	}, []string{"path"})
	m.reg.MustRegister(g)
	return g
}

// NewProbeErrorsTotal 创建「探测器错误总数」指标
// 标签说明：
// probe: 探测器名称（如 "storage-probe"）
func (m *MetricFactory) NewProbeErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_errors_total",
		Help:      "Total host probe errors",
	}, []string{"probe"})
	m.reg.MustRegister(c)
	return c
}

// NewProbeDurationSeconds 创建「探测耗时分布」指标
func (m *MetricFactory) NewProbeDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Host probe duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"probe"})
	m.reg.MustRegister(h)
	return h
}
