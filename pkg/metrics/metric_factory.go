package metrics

import "github.com/prometheus/client_golang/prometheus"

// MetricFactory 指标工厂，用于统一创建指标（counter/gauge/histogram）。
// Every constructor registers what it creates, so each one may be called
// once per registry.
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewTestFactory returns a factory over a fresh registry, for tests and
// one-shot runs that never expose /metrics.
func NewTestFactory() (*MetricFactory, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetricFactory(NewPromRegistry(reg)), reg
}
