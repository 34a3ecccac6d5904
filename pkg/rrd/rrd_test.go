package rrd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/timeseries"
)

// fakeRunner records every invocation and creates the target file on "create".
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))
	if f.err != nil {
		return nil, f.err
	}
	if len(args) > 1 && args[0] == "create" {
		if err := os.WriteFile(args[1], []byte("rrd"), 0o644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c[0])
	}
	return out
}

func newTestTool(t *testing.T, runner Runner) *Tool {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		DatabaseDir: filepath.Join(dir, "databases"),
		ImageDir:    filepath.Join(dir, "images"),
		LockTimeout: 300 * time.Millisecond,
	}
	require.NoError(t, os.MkdirAll(cfg.DatabaseDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.ImageDir, 0o755))
	now := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	return New(cfg, runner, zap.NewNop(), WithClock(func() time.Time { return now }))
}

func TestEnsureSeriesIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)
	ctx := context.Background()

	require.NoError(t, tool.EnsureSeries(ctx, "trunk01", timeseries.DefaultSchema()))
	require.NoError(t, tool.EnsureSeries(ctx, "trunk01", timeseries.DefaultSchema()))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"create", tool.DatabasePath("trunk01"),
		"--no-overwrite",
		"--step", "60",
		"DS:CallsInProgress:GAUGE:120:0:5000",
		"RRA:AVERAGE:0.5:1:1440",
		"RRA:AVERAGE:0.5:60:168",
		"RRA:AVERAGE:0.5:1440:365",
	}, runner.calls[0])
}

func TestEnsureSeriesKeepsExistingFile(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)
	require.NoError(t, os.WriteFile(tool.DatabasePath("gw01"), []byte("history"), 0o644))

	require.NoError(t, tool.EnsureSeries(context.Background(), "gw01", timeseries.DefaultSchema()))

	assert.Empty(t, runner.calls)
	b, err := os.ReadFile(tool.DatabasePath("gw01"))
	require.NoError(t, err)
	assert.Equal(t, "history", string(b))
}

func TestEnsureSeriesRejectsEmptySchema(t *testing.T) {
	tool := newTestTool(t, &fakeRunner{})
	err := tool.EnsureSeries(context.Background(), "trunk01", timeseries.Schema{Step: time.Minute})
	assert.Error(t, err)
}

func TestEnsureSeriesReportsStatError(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)
	// a regular file where the database directory should be: stat fails with ENOTDIR
	require.NoError(t, os.RemoveAll(tool.cfg.DatabaseDir))
	require.NoError(t, os.WriteFile(tool.cfg.DatabaseDir, []byte("x"), 0o644))

	err := tool.EnsureSeries(context.Background(), "trunk01", timeseries.DefaultSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat series")
	assert.Empty(t, runner.calls)
}

func TestAppendSample(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)
	ts := time.Unix(1700000000, 0)

	require.NoError(t, tool.AppendSample(context.Background(), "trunk01", ts, 12))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"update", tool.DatabasePath("trunk01"), "1700000000:12"}, runner.calls[0])
}

func TestAppendSampleEngineError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("ERROR: illegal attempt to update")}
	tool := newTestTool(t, runner)

	err := tool.AppendSample(context.Background(), "trunk01", time.Now(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trunk01")
}

func TestAppendSampleWaitsForLock(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)

	held := flock.New(tool.DatabasePath("trunk01") + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Close()

	err = tool.AppendSample(context.Background(), "trunk01", time.Now(), 1)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Empty(t, runner.calls)

	require.NoError(t, held.Unlock())
	assert.NoError(t, tool.AppendSample(context.Background(), "trunk01", time.Now(), 1))
}

func TestRenderRange(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)
	r := timeseries.Ranges()[0]

	img, err := tool.RenderRange(context.Background(), "trunk01", r, timeseries.DefaultStyle())
	require.NoError(t, err)

	assert.Equal(t, timeseries.ImageHandle{
		Device: "trunk01",
		Range:  "1D",
		Path:   filepath.Join(tool.cfg.ImageDir, "trunk01_1D.png"),
	}, img)

	require.Len(t, runner.calls, 1)
	args := runner.calls[0]
	assert.Equal(t, []string{"graph", img.Path, "--start", "end-12h"}, args[:4])
	assert.Contains(t, args, "trunk01 - Calls In Progress 12 Hours")
	assert.Contains(t, args, "DEF:CIP="+tool.DatabasePath("trunk01")+":CallsInProgress:AVERAGE")
	assert.Contains(t, args, `AREA:CIP#00FF00:Current\:`)
	assert.Equal(t, `COMMENT:Last update\: Fri, 01 Mar 2024 10.20.30 UTC`, args[len(args)-1])
}

func TestRenderAllRanges(t *testing.T) {
	runner := &fakeRunner{}
	tool := newTestTool(t, runner)

	var starts []string
	for _, r := range timeseries.Ranges() {
		_, err := tool.RenderRange(context.Background(), "gw01", r, timeseries.DefaultStyle())
		require.NoError(t, err)
	}
	for _, c := range runner.calls {
		starts = append(starts, c[3])
	}
	assert.Equal(t, []string{"end-12h", "end-1w", "end-1m", "end-1y"}, starts)
	assert.Equal(t, []string{"graph", "graph", "graph", "graph"}, runner.commands())
}

func TestGraphArgsEscapesColonsInPath(t *testing.T) {
	args := graphArgs("/img/x.png", `C:\tg\databases\gw01.rrd`, "gw01",
		timeseries.Ranges()[1], timeseries.DefaultStyle(), time.Unix(0, 0).UTC())

	var def string
	for _, a := range args {
		if strings.HasPrefix(a, "DEF:") {
			def = a
		}
	}
	assert.Equal(t, `DEF:CIP=C\:\tg\databases\gw01.rrd:CallsInProgress:AVERAGE`, def)
}

func TestExecRunner(t *testing.T) {
	sh, err := CheckEngine("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	out, err := NewExecRunner(sh, time.Second).Run(context.Background(), "-c", "echo 1200x400")
	require.NoError(t, err)
	assert.Equal(t, "1200x400\n", string(out))

	_, err = NewExecRunner(sh, time.Second).Run(context.Background(), "-c", "echo bad >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	_, err = NewExecRunner(sh, 100*time.Millisecond).Run(context.Background(), "-c", "sleep 5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCheckEngineMissing(t *testing.T) {
	_, err := CheckEngine(filepath.Join(t.TempDir(), "rrdtool"))
	assert.ErrorIs(t, err, ErrEngineNotFound)

	_, err = CheckEngine("")
	assert.ErrorIs(t, err, ErrEngineNotFound)
}
