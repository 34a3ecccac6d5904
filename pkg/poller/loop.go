package poller

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/metrics"
)

// CycleRunner runs one cycle. *Cycle implements it.
type CycleRunner interface {
	Run(ctx context.Context, enter func(State)) *Report
}

// Loop drives cycles through the state machine
// Idle -> Collecting -> Persisting -> Rendering -> Sleeping -> Collecting | Terminal.
type Loop struct {
	cycle    CycleRunner
	interval time.Duration
	log      *zap.Logger
	after    func(time.Duration) <-chan time.Time

	mu         sync.RWMutex
	state      State
	lastReport *Report

	stateGauge  *prometheus.GaugeVec
	cyclesTotal prometheus.Counter
}

// LoopOption customizes a Loop.
type LoopOption func(*Loop)

// WithAfter replaces time.After for the sleep between cycles.
func WithAfter(after func(time.Duration) <-chan time.Time) LoopOption {
	return func(l *Loop) { l.after = after }
}

// NewLoop 创建轮询循环
func NewLoop(cycle CycleRunner, interval time.Duration, log *zap.Logger, metricFactory *metrics.MetricFactory, opts ...LoopOption) *Loop {
	l := &Loop{
		cycle:       cycle,
		interval:    interval,
		log:         log.Named("loop"),
		after:       time.After,
		stateGauge:  metricFactory.NewLoopState(),
		cyclesTotal: metricFactory.NewCyclesTotal(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.setState(Idle)
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// LastReport returns the report of the last finished cycle, nil before the first.
func (l *Loop) LastReport() *Report {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastReport
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	prev := l.state
	l.state = s
	l.mu.Unlock()

	for _, st := range States() {
		v := 0.0
		if st == s {
			v = 1
		}
		l.stateGauge.WithLabelValues(st.String()).Set(v)
	}
	if prev != s {
		l.log.Debug("state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// runCycle shields the cycle from cancellation so a stop request never
// interrupts a write half way. Request and exec timeouts still apply.
func (l *Loop) runCycle(ctx context.Context) *Report {
	rep := l.cycle.Run(context.WithoutCancel(ctx), l.setState)

	l.mu.Lock()
	l.lastReport = rep
	l.mu.Unlock()
	l.cyclesTotal.Inc()
	return rep
}

// RunOnce runs a single cycle and ends in Terminal. It fails only when ctx is
// done before the cycle starts; per-item failures are in the report.
func (l *Loop) RunOnce(ctx context.Context) (*Report, error) {
	defer l.setState(Terminal)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.log.Info("running once")
	return l.runCycle(ctx), nil
}

// Run repeats cycles until ctx is done. Cancellation is observed only between
// cycles, while Idle or Sleeping. A cancelled loop returns nil.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(Terminal)

	l.log.Info("running until interrupted", zap.Duration("interval", l.interval))
	for {
		if ctx.Err() != nil {
			l.log.Info("poll loop stopped")
			return nil
		}

		l.runCycle(ctx)

		l.setState(Sleeping)
		select {
		case <-ctx.Done():
			l.log.Info("poll loop stopped")
			return nil
		case <-l.after(l.interval):
		}
	}
}
