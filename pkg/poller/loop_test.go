package poller

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/metrics"
)

// scriptedCycle walks through the phases and runs hook after each cycle.
type scriptedCycle struct {
	runs    int
	ctxErrs []error
	hook    func(run int)
}

func (s *scriptedCycle) Run(ctx context.Context, enter func(State)) *Report {
	s.runs++
	for _, st := range []State{Collecting, Persisting, Rendering} {
		enter(st)
	}
	if s.hook != nil {
		s.hook(s.runs)
	}
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return &Report{}
}

func TestRunOnce(t *testing.T) {
	mf, _ := metrics.NewTestFactory()
	cycle := &scriptedCycle{}
	l := NewLoop(cycle, time.Minute, zap.NewNop(), mf)
	assert.Equal(t, Idle, l.State())

	rep, err := l.RunOnce(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, rep)
	assert.Same(t, rep, l.LastReport())
	assert.Equal(t, 1, cycle.runs)
	assert.Equal(t, Terminal, l.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(l.stateGauge.WithLabelValues("terminal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(l.stateGauge.WithLabelValues("rendering")))
}

func TestRunOnceCancelledBeforeStart(t *testing.T) {
	mf, _ := metrics.NewTestFactory()
	cycle := &scriptedCycle{}
	l := NewLoop(cycle, time.Minute, zap.NewNop(), mf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cycle.runs)
	assert.Equal(t, Terminal, l.State())
}

func TestLoopRepeatsUntilCancelled(t *testing.T) {
	mf, _ := metrics.NewTestFactory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var slept []time.Duration
	tick := make(chan time.Time, 1)
	after := func(d time.Duration) <-chan time.Time {
		slept = append(slept, d)
		tick <- time.Time{}
		return tick
	}

	var l *Loop
	var stateDuringHook State
	cycle := &scriptedCycle{hook: func(run int) {
		if run == 3 {
			stateDuringHook = l.State()
			// stop requested while the cycle is still writing
			cancel()
		}
	}}
	l = NewLoop(cycle, 30*time.Second, zap.NewNop(), mf, WithAfter(after))

	require.NoError(t, l.Run(ctx))

	assert.Equal(t, 3, cycle.runs)
	// the sleep after the third cycle is entered, then interrupted
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second, 30 * time.Second}, slept)
	assert.Equal(t, Rendering, stateDuringHook)
	for _, err := range cycle.ctxErrs {
		assert.NoError(t, err, "cycles run on a context that is never cancelled")
	}
	assert.Equal(t, Terminal, l.State())
	assert.Equal(t, 3.0, testutil.ToFloat64(l.cyclesTotal))
}

func TestLoopStopsWhileSleeping(t *testing.T) {
	mf, _ := metrics.NewTestFactory()
	ctx, cancel := context.WithCancel(context.Background())

	sleeping := make(chan struct{})
	after := func(time.Duration) <-chan time.Time {
		close(sleeping)
		return make(chan time.Time) // never fires
	}
	cycle := &scriptedCycle{}
	l := NewLoop(cycle, time.Hour, zap.NewNop(), mf, WithAfter(after))

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	<-sleeping
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 1, cycle.runs)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "sleeping", Sleeping.String())
	assert.Equal(t, "unknown", State(99).String())
}
