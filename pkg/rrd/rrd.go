// Package rrd stores device series in round robin databases and draws their
// graphs by running the rrdtool binary.
package rrd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tg-collector/pkg/timeseries"
)

var (
	_ timeseries.Sink     = (*Tool)(nil)
	_ timeseries.Renderer = (*Tool)(nil)
)

// Config rrdtool 适配器配置
type Config struct {
	DatabaseDir string
	ImageDir    string
	// LockTimeout bounds the wait for a device lock; zero waits until ctx ends.
	LockTimeout time.Duration
}

// Tool implements timeseries.Sink and timeseries.Renderer on top of rrdtool.
type Tool struct {
	cfg    Config
	runner Runner
	log    *zap.Logger
	now    func() time.Time
}

// Option customizes a Tool.
type Option func(*Tool)

// WithClock replaces time.Now, used for the "Last update" comment.
func WithClock(now func() time.Time) Option {
	return func(t *Tool) { t.now = now }
}

// New 创建 rrdtool 适配器
func New(cfg Config, runner Runner, log *zap.Logger, opts ...Option) *Tool {
	t := &Tool{
		cfg:    cfg,
		runner: runner,
		log:    log.Named("rrd"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DatabasePath returns the series file of device.
func (t *Tool) DatabasePath(device string) string {
	return filepath.Join(t.cfg.DatabaseDir, device+".rrd")
}

// ImagePath returns the graph file of device for r.
func (t *Tool) ImagePath(device string, r timeseries.RangeSpec) string {
	return filepath.Join(t.cfg.ImageDir, timeseries.ImageName(device, r))
}

// EnsureSeries creates the database of device unless it already exists.
func (t *Tool) EnsureSeries(ctx context.Context, device string, schema timeseries.Schema) error {
	path := t.DatabasePath(device)
	if ok, err := exists(path); ok || err != nil {
		return err
	}
	return t.withLock(ctx, device, true, func() error {
		if ok, err := exists(path); ok || err != nil {
			return err
		}
		args, err := createArgs(path, schema)
		if err != nil {
			return err
		}
		if _, err := t.runner.Run(ctx, args...); err != nil {
			return fmt.Errorf("create series %s: %w", device, err)
		}
		t.log.Info("created series", zap.String("device", device), zap.String("path", path))
		return nil
	})
}

// AppendSample writes value at ts into the database of device.
func (t *Tool) AppendSample(ctx context.Context, device string, ts time.Time, value int64) error {
	return t.withLock(ctx, device, true, func() error {
		sample := strconv.FormatInt(ts.Unix(), 10) + ":" + strconv.FormatInt(value, 10)
		if _, err := t.runner.Run(ctx, "update", t.DatabasePath(device), sample); err != nil {
			return fmt.Errorf("update series %s: %w", device, err)
		}
		return nil
	})
}

// RenderRange draws the graph of device over r.
func (t *Tool) RenderRange(ctx context.Context, device string, r timeseries.RangeSpec, style timeseries.StyleSpec) (timeseries.ImageHandle, error) {
	img := t.ImagePath(device, r)
	args := graphArgs(img, t.DatabasePath(device), device, r, style, t.now())

	err := t.withLock(ctx, device, false, func() error {
		_, err := t.runner.Run(ctx, args...)
		return err
	})
	if err != nil {
		return timeseries.ImageHandle{}, fmt.Errorf("render %s %s: %w", device, r.Name, err)
	}
	return timeseries.ImageHandle{Device: device, Range: r.Name, Path: img}, nil
}

func createArgs(path string, schema timeseries.Schema) ([]string, error) {
	if len(schema.DataSources) == 0 || len(schema.Archives) == 0 {
		return nil, errors.New("schema needs at least one data source and one archive")
	}
	args := []string{
		"create", path,
		"--no-overwrite",
		"--step", strconv.Itoa(int(schema.Step.Seconds())),
	}
	for _, ds := range schema.DataSources {
		args = append(args, fmt.Sprintf("DS:%s:%s:%d:%d:%d",
			ds.Name, ds.Kind, int(ds.Heartbeat.Seconds()), ds.Min, ds.Max))
	}
	for _, a := range schema.Archives {
		args = append(args, fmt.Sprintf("RRA:%s:%s:%d:%d",
			a.CF, strconv.FormatFloat(a.XFF, 'f', -1, 64), a.Steps, a.Rows))
	}
	return args, nil
}

func graphArgs(img, db, device string, r timeseries.RangeSpec, style timeseries.StyleSpec, now time.Time) []string {
	ds := timeseries.DataSourceName
	return []string{
		"graph", img,
		"--start", r.Start,
		"--title", fmt.Sprintf("%s - %s %s", device, style.Title, r.Title),
		"--vertical-label", style.VerticalLabel,
		"--width", strconv.Itoa(style.Width),
		"--height", strconv.Itoa(style.Height),
		"--full-size-mode",
		"--lower-limit=0",
		"--alt-autoscale-max",
		"DEF:CIP=" + escapeColons(db) + ":" + ds + ":AVERAGE",
		"VDEF:Maximum=CIP,MAXIMUM",
		"VDEF:Average=CIP,AVERAGE",
		"VDEF:" + ds + "=CIP,LAST",
		`AREA:CIP#00FF00:Current\:`,
		"GPRINT:" + ds + `:%.0lf\l`,
		`LINE2:Maximum#FF0000:Maximum\:`,
		`GPRINT:Maximum:%.0lf\l`,
		`LINE2:Average#0000FF:Average\:`,
		`GPRINT:Average:%.0lf\l`,
		`COMMENT:Last update\: ` + escapeColons(now.Format(style.TimeLayout)),
	}
}

// escapeColons protects ':' inside a graph element argument.
func escapeColons(s string) string {
	return strings.ReplaceAll(s, ":", `\:`)
}

// exists reports whether path is there; stat failures other than
// "not exist" are returned.
func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat series: %w", err)
}
