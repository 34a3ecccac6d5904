package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tg-collector/pkg/perfmon"
	"github.com/tg-collector/pkg/timeseries"
)

type appendCall struct {
	Device string
	TS     time.Time
	Value  int64
}

type fakeSink struct {
	mu         sync.Mutex
	ensured    []string
	appended   []appendCall
	ensureErrs map[string]error
	appendErrs map[string]error
}

func (f *fakeSink) EnsureSeries(_ context.Context, device string, _ timeseries.Schema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureErrs[device]; err != nil {
		return err
	}
	f.ensured = append(f.ensured, device)
	return nil
}

func (f *fakeSink) AppendSample(_ context.Context, device string, ts time.Time, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.appendErrs[device]; err != nil {
		return err
	}
	f.appended = append(f.appended, appendCall{Device: device, TS: ts, Value: value})
	return nil
}

type renderCall struct {
	Device string
	Range  string
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
	fail  map[renderCall]bool
}

func (f *fakeRenderer) RenderRange(_ context.Context, device string, r timeseries.RangeSpec, _ timeseries.StyleSpec) (timeseries.ImageHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := renderCall{Device: device, Range: r.Name}
	f.calls = append(f.calls, call)
	if f.fail[call] {
		return timeseries.ImageHandle{}, errors.New("graph failed")
	}
	return timeseries.ImageHandle{Device: device, Range: r.Name, Path: timeseries.ImageName(device, r)}, nil
}

func (f *fakeRenderer) callsFor(device string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ranges []string
	for _, c := range f.calls {
		if c.Device == device {
			ranges = append(ranges, c.Range)
		}
	}
	return ranges
}

type fakePages struct {
	mu      sync.Mutex
	index   []string
	devices map[string][]timeseries.ImageHandle
}

func (f *fakePages) WriteIndex(devices []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = devices
	return nil
}

func (f *fakePages) WriteDevice(device string, images []timeseries.ImageHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devices == nil {
		f.devices = make(map[string][]timeseries.ImageHandle)
	}
	f.devices[device] = images
	return nil
}

// staticCollector returns the same samples on every call.
type staticCollector struct {
	samples []perfmon.Sample
	calls   int
}

func (s *staticCollector) CollectAll(_ context.Context, reqs []perfmon.Request) ([]perfmon.Sample, []perfmon.RequestResult) {
	s.calls++
	results := make([]perfmon.RequestResult, len(reqs))
	for i, r := range reqs {
		results[i] = perfmon.RequestResult{Request: r}
	}
	return s.samples, results
}

type probeFunc func(ctx context.Context) error

func (p probeFunc) Name() string                      { return "test-probe" }
func (p probeFunc) Init() error                       { return nil }
func (p probeFunc) Collect(ctx context.Context) error { return p(ctx) }
func (p probeFunc) Close() error                      { return nil }
