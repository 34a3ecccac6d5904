package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tg"

// NewPerfmonRequestsTotal 创建「perfmon 请求总数」指标
// 指标类型：Counter（计数器）
// 标签说明：
//
//	server: 集群节点地址
//	counter: 计数器对象名（如 "Cisco SIP"）
//	status: ok / error
func (m *MetricFactory) NewPerfmonRequestsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "perfmon_requests_total",
		Help:      "Perfmon collection requests by server, counter object and outcome",
	}, []string{"server", "counter", "status"})
	m.reg.MustRegister(c)
	return c
}

// NewPerfmonRequestDurationSeconds 创建「perfmon 请求耗时分布」指标
// 分桶说明：0.05s ~ 25.6s，覆盖慢节点和超时场景
func (m *MetricFactory) NewPerfmonRequestDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "perfmon_request_duration_seconds",
		Help:      "Perfmon request duration per server",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"server"})
	m.reg.MustRegister(h)
	return h
}

// NewCyclePhaseDurationSeconds records how long each phase of a poll cycle took.
func (m *MetricFactory) NewCyclePhaseDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_phase_duration_seconds",
		Help:      "Poll cycle duration by phase",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})
	m.reg.MustRegister(h)
	return h
}

// NewDeviceValue 每个设备最近一次聚合值
func (m *MetricFactory) NewDeviceValue() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "device_value",
		Help:      "Latest aggregated value per device",
	}, []string{"device"})
	m.reg.MustRegister(g)
	return g
}

// NewDeviceErrorsTotal counts persist and render failures per device.
func (m *MetricFactory) NewDeviceErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "device_errors_total",
		Help:      "Per-device failures by stage (persist, render)",
	}, []string{"device", "stage"})
	m.reg.MustRegister(c)
	return c
}

// NewLoopState exposes the poll loop state; the current state is 1, all others 0.
func (m *MetricFactory) NewLoopState() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "loop_state",
		Help:      "Current poll loop state",
	}, []string{"state"})
	m.reg.MustRegister(g)
	return g
}

// NewCyclesTotal counts completed poll cycles.
func (m *MetricFactory) NewCyclesTotal() prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Completed poll cycles",
	})
	m.reg.MustRegister(c)
	return c
}
