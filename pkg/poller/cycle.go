// Package poller runs poll cycles: collect the counters of every configured
// device, persist one sample per device and render its graphs and pages.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/collector"
	"github.com/tg-collector/pkg/metrics"
	"github.com/tg-collector/pkg/perfmon"
	"github.com/tg-collector/pkg/timeseries"
)

// SampleCollector executes collection requests. *perfmon.Collector implements it.
type SampleCollector interface {
	CollectAll(ctx context.Context, reqs []perfmon.Request) ([]perfmon.Sample, []perfmon.RequestResult)
}

// PageWriter writes the dashboard pages. *dashboard.Writer implements it.
type PageWriter interface {
	WriteIndex(devices []string) error
	WriteDevice(device string, images []timeseries.ImageHandle) error
}

// CycleConfig 周期配置
type CycleConfig struct {
	Devices []perfmon.Device
	Servers []perfmon.Server
	// Concurrency bounds the devices persisted or rendered at once.
	Concurrency int
	Schema      timeseries.Schema
	Ranges      []timeseries.RangeSpec
	Style       timeseries.StyleSpec
}

// Deps are the collaborators of a cycle. Pages and Probes are optional.
type Deps struct {
	Collector SampleCollector
	Sink      timeseries.Sink
	Renderer  timeseries.Renderer
	Pages     PageWriter
	Probes    []collector.Collector
}

// Cycle runs one poll cycle at a time. The request list is built once since
// devices and servers do not change while the process runs.
type Cycle struct {
	cfg      CycleConfig
	deps     Deps
	requests []perfmon.Request
	log      *zap.Logger
	now      func() time.Time

	phaseDuration *prometheus.HistogramVec
	deviceValue   *prometheus.GaugeVec
	deviceErrors  *prometheus.CounterVec
}

// NewCycle 创建轮询周期
func NewCycle(cfg CycleConfig, deps Deps, log *zap.Logger, metricFactory *metrics.MetricFactory) *Cycle {
	log = log.Named("cycle")

	types, unknown := perfmon.CounterSet(cfg.Devices)
	for _, d := range unknown {
		log.Warn("device has an unknown class and is never queried",
			zap.String("device", d.Name), zap.String("class", d.Class))
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if len(cfg.Ranges) == 0 {
		cfg.Ranges = timeseries.Ranges()
	}

	return &Cycle{
		cfg:           cfg,
		deps:          deps,
		requests:      perfmon.BuildRequests(types, cfg.Servers),
		log:           log,
		now:           time.Now,
		phaseDuration: metricFactory.NewCyclePhaseDurationSeconds(),
		deviceValue:   metricFactory.NewDeviceValue(),
		deviceErrors:  metricFactory.NewDeviceErrorsTotal(),
	}
}

// Requests returns the requests issued by every cycle.
func (c *Cycle) Requests() []perfmon.Request {
	return append([]perfmon.Request(nil), c.requests...)
}

// Run executes Collect, Persist and Render in order, calling enter before
// each phase. Per-request and per-device failures end up in the report; Run
// itself never fails.
func (c *Cycle) Run(ctx context.Context, enter func(State)) *Report {
	if enter == nil {
		enter = func(State) {}
	}
	rep := &Report{Started: c.now()}

	enter(Collecting)
	c.timed("collect", func() { c.collect(ctx, rep) })

	enter(Persisting)
	var ensured []string
	c.timed("persist", func() { ensured = c.persist(ctx, rep) })

	enter(Rendering)
	c.timed("render", func() { c.render(ctx, rep, ensured) })

	rep.Finished = c.now()
	rep.log(c.log)
	return rep
}

func (c *Cycle) timed(phase string, fn func()) {
	start := time.Now()
	fn()
	c.phaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func (c *Cycle) collect(ctx context.Context, rep *Report) {
	samples, results := c.deps.Collector.CollectAll(ctx, c.requests)
	rep.Requests = results
	rep.Result = perfmon.Aggregate(samples)

	for _, e := range rep.Result.Entries() {
		c.deviceValue.WithLabelValues(e.Device).Set(float64(e.Value))
	}
	c.log.Debug("collected",
		zap.Int("requests", len(results)),
		zap.Int("samples", len(samples)),
		zap.Strings("devices", rep.Result.Devices()))
}

// persist returns the devices whose series exist, in result order.
func (c *Cycle) persist(ctx context.Context, rep *Report) []string {
	c.runProbes(ctx, rep)

	entries := rep.Result.Entries()
	ts := c.now()
	ok := make([]bool, len(entries))
	failures := make([][]DeviceResult, len(entries))

	p := pool.New().WithMaxGoroutines(c.cfg.Concurrency)
	for i, e := range entries {
		p.Go(func() {
			if err := c.deps.Sink.EnsureSeries(ctx, e.Device, c.cfg.Schema); err != nil {
				failures[i] = append(failures[i], c.fail(e.Device, StagePersist, err))
				return
			}
			ok[i] = true
			if err := c.deps.Sink.AppendSample(ctx, e.Device, ts, e.Value); err != nil {
				failures[i] = append(failures[i], c.fail(e.Device, StagePersist, err))
			}
		})
	}
	p.Wait()

	var ensured []string
	for i, e := range entries {
		rep.Devices = append(rep.Devices, failures[i]...)
		if ok[i] {
			ensured = append(ensured, e.Device)
		}
	}
	return ensured
}

func (c *Cycle) runProbes(ctx context.Context, rep *Report) {
	var errs []error
	for _, probe := range c.deps.Probes {
		if err := probe.Collect(ctx); err != nil {
			c.log.Warn("probe failed", zap.String("name", probe.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	rep.ProbeErr = errors.Join(errs...)
}

func (c *Cycle) render(ctx context.Context, rep *Report, devices []string) {
	failures := make([][]DeviceResult, len(devices))
	pageErrs := make([]error, len(devices))

	p := pool.New().WithMaxGoroutines(c.cfg.Concurrency)
	for i, device := range devices {
		p.Go(func() {
			var images []timeseries.ImageHandle
			for _, r := range c.cfg.Ranges {
				img, err := c.deps.Renderer.RenderRange(ctx, device, r, c.cfg.Style)
				if err != nil {
					failures[i] = append(failures[i], c.fail(device, StageRender, err))
					continue
				}
				images = append(images, img)
			}
			if c.deps.Pages != nil {
				pageErrs[i] = c.deps.Pages.WriteDevice(device, images)
			}
		})
	}
	p.Wait()

	for i := range devices {
		rep.Devices = append(rep.Devices, failures[i]...)
	}
	rep.Rendered = devices

	if c.deps.Pages == nil {
		return
	}
	pageErrs = append(pageErrs, c.deps.Pages.WriteIndex(devices))
	if err := errors.Join(pageErrs...); err != nil {
		c.log.Error("failed to write dashboard pages", zap.Error(err))
		rep.PageErr = err
	}
}

func (c *Cycle) fail(device string, stage Stage, err error) DeviceResult {
	c.log.Error("device step failed",
		zap.String("device", device),
		zap.String("stage", string(stage)),
		zap.Error(err))
	c.deviceErrors.WithLabelValues(device, string(stage)).Inc()
	return DeviceResult{Device: device, Stage: stage, Err: err}
}
