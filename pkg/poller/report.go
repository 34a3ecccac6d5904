package poller

import (
	"time"

	"go.uber.org/zap"

	"github.com/tg-collector/pkg/perfmon"
)

// Stage names the per-device step a DeviceResult belongs to.
type Stage string

const (
	StagePersist Stage = "persist"
	StageRender  Stage = "render"
)

// DeviceResult records one per-device failure.
type DeviceResult struct {
	Device string
	Stage  Stage
	Err    error
}

// Report 单个周期的全部结果
type Report struct {
	Started  time.Time
	Finished time.Time
	Requests []perfmon.RequestResult
	Result   perfmon.Result
	// Devices holds failures only; a device absent here went through every stage.
	Devices []DeviceResult
	// Rendered lists the devices that were graphed.
	Rendered []string
	ProbeErr error
	PageErr  error
}

// FailedRequests returns the number of requests that ended in error.
func (r *Report) FailedRequests() int {
	n := 0
	for _, rr := range r.Requests {
		if !rr.OK() {
			n++
		}
	}
	return n
}

// Duration 周期耗时
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// log writes the one-line cycle summary.
func (r *Report) log(log *zap.Logger) {
	fields := []zap.Field{
		zap.Int("requests", len(r.Requests)),
		zap.Int("failed_requests", r.FailedRequests()),
		zap.Int("devices", r.Result.Len()),
		zap.Int("device_errors", len(r.Devices)),
		zap.Duration("duration", r.Duration()),
	}
	if r.FailedRequests() > 0 || len(r.Devices) > 0 || r.PageErr != nil {
		log.Warn("poll cycle finished with errors", fields...)
		return
	}
	log.Info("poll cycle finished", fields...)
}
