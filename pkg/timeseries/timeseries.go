// Package timeseries defines the storage and graphing contracts the poll
// cycle writes to, together with the series layout, the graph ranges and the
// graph style used for every device.
package timeseries

import (
	"context"
	"time"
)

// Sink stores one time series per device.
type Sink interface {
	// EnsureSeries creates the series when it does not exist. An existing
	// series is never modified.
	EnsureSeries(ctx context.Context, device string, schema Schema) error
	// AppendSample records value at ts.
	AppendSample(ctx context.Context, device string, ts time.Time, value int64) error
}

// Renderer draws the graph of one device over one range.
type Renderer interface {
	RenderRange(ctx context.Context, device string, r RangeSpec, style StyleSpec) (ImageHandle, error)
}

// ImageHandle identifies a rendered graph.
type ImageHandle struct {
	Device string
	Range  string
	Path   string
}
