package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tg-collector/cmd/server"
	"github.com/tg-collector/pkg/collector"
	"github.com/tg-collector/pkg/config"
	"github.com/tg-collector/pkg/dashboard"
	"github.com/tg-collector/pkg/metrics"
	"github.com/tg-collector/pkg/perfmon"
	"github.com/tg-collector/pkg/poller"
	"github.com/tg-collector/pkg/rrd"
	"github.com/tg-collector/pkg/signal"
	"github.com/tg-collector/pkg/timeseries"
)

// Module 探针注册表项
type Module struct {
	Enabled bool
	Name    string
	NewFunc func() collector.Collector
}

// app 持有一次运行的全部组件
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	loop     *poller.Loop
	probes   []collector.Collector
}

func probeModules(cfg *config.Config, log *zap.Logger, mf *metrics.MetricFactory) []Module {
	return []Module{
		{
			Enabled: true,
			Name:    "storage",
			NewFunc: func() collector.Collector {
				return collector.NewStorageCollector(cfg.Paths.Databases, cfg.Poll.MinFreeBytes, log, mf)
			},
		},
	}
}

// initProbes 初始化启用的探针，初始化失败的探针只告警并跳过
func initProbes(modules []Module, log *zap.Logger) []collector.Collector {
	var probes []collector.Collector
	for _, m := range modules {
		if !m.Enabled {
			log.Debug("probe disabled", zap.String("name", m.Name))
			continue
		}
		p := m.NewFunc()
		if err := p.Init(); err != nil {
			log.Warn("probe init failed, skipped", zap.String("name", m.Name), zap.Error(err))
			continue
		}
		log.Debug("probe initialized", zap.String("name", p.Name()))
		probes = append(probes, p)
	}
	return probes
}

func newApp(cfg *config.Config, engine string, log *zap.Logger) (*app, error) {
	registry := metrics.NewRegistry(true)
	mf := metrics.NewMetricFactory(metrics.NewPromRegistry(registry))

	httpClient, err := perfmon.NewHTTPClient(perfmon.ClientConfig{
		Timeout:            cfg.Perfmon.Timeout,
		CAFile:             cfg.Perfmon.CAFile,
		InsecureSkipVerify: cfg.Perfmon.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}

	devices := make([]perfmon.Device, len(cfg.Devices))
	for i, d := range cfg.Devices {
		devices[i] = perfmon.Device{Name: d.Name, Class: d.Class}
	}
	servers := make([]perfmon.Server, len(cfg.Servers))
	for i, s := range cfg.Servers {
		servers[i] = perfmon.Server{Address: s}
	}

	pc := perfmon.NewCollector(perfmon.Config{
		Credentials: perfmon.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
		Devices:     devices,
		Timeout:     cfg.Perfmon.Timeout,
		Concurrency: cfg.Perfmon.Concurrency,
	}, httpClient, log, mf)

	tool := rrd.New(rrd.Config{
		DatabaseDir: cfg.Paths.Databases,
		ImageDir:    cfg.Paths.Images,
		LockTimeout: cfg.Poll.LockTimeout,
	}, rrd.NewExecRunner(engine, cfg.Poll.ExecTimeout), log)

	style := timeseries.DefaultStyle()
	pages, err := dashboard.New(dashboard.Config{
		Dir:         cfg.Paths.Images,
		CompanyName: cfg.HTML.CompanyName,
		CompanyLogo: cfg.HTML.CompanyLogo,
		Refresh:     cfg.Poll.Interval,
		TimeLayout:  style.TimeLayout,
	}, log)
	if err != nil {
		return nil, err
	}

	probes := initProbes(probeModules(cfg, log, mf), log)

	cycle := poller.NewCycle(poller.CycleConfig{
		Devices:     devices,
		Servers:     servers,
		Concurrency: cfg.Poll.Concurrency,
		Schema:      timeseries.DefaultSchema(),
		Ranges:      timeseries.Ranges(),
		Style:       style,
	}, poller.Deps{
		Collector: pc,
		Sink:      tool,
		Renderer:  tool,
		Pages:     pages,
		Probes:    probes,
	}, log, mf)

	log.Debug("components ready",
		zap.String("rrdtool", engine),
		zap.Int("requests", len(cycle.Requests())),
		zap.Int("probes", len(probes)))

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		loop:     poller.NewLoop(cycle, cfg.Poll.Interval, log, mf),
		probes:   probes,
	}, nil
}

func (a *app) runOnce(ctx context.Context) error {
	_, err := a.loop.RunOnce(ctx)
	return err
}

// runLoop 轮询直到 ctx 取消；启用时同时提供 HTTP 服务
func (a *app) runLoop(ctx context.Context) error {
	if !a.cfg.Server.Enable {
		return a.loop.Run(ctx)
	}

	httpServer := server.NewHTTPServer(a.cfg.Server, a.log, a.registry, a.loop, a.cfg.Paths.Images)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("start HTTP server failed: %w", err)
	}
	err := a.loop.Run(ctx)
	signal.Shutdown(a.log, a.cfg.Server.WriteTimeout, httpServer.Shutdown)
	return err
}

func (a *app) close() {
	var errs []error
	for _, p := range a.probes {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("failed to close probes", zap.Error(err))
	}
}
