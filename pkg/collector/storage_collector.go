package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/metrics"
)

// ErrLowDiskSpace is returned by Collect when free space is under the threshold.
var ErrLowDiskSpace = errors.New("low disk space")

type usageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// StorageCollector 探测数据库目录所在文件系统的剩余空间
type StorageCollector struct {
	name    string
	path    string
	minFree uint64
	usage   usageFunc
	log     *zap.Logger

	metrics         StorageCollectorMetrics
	collectErrors   *prometheus.CounterVec
	collectDuration *prometheus.HistogramVec
}

// NewStorageCollector creates a probe for path. A zero minFree only records
// the metrics.
func NewStorageCollector(path string, minFree uint64, log *zap.Logger, metricFactory *metrics.MetricFactory) *StorageCollector {
	return &StorageCollector{
		name:    "storage-probe",
		path:    path,
		minFree: minFree,
		usage:   disk.UsageWithContext,
		log:     log.Named("storage"),
		metrics: StorageCollectorMetrics{
			freeBytes:  metricFactory.NewStorageFreeBytes(),
			usageRatio: metricFactory.NewStorageUsageRatio(),
		},
		collectErrors:   metricFactory.NewProbeErrorsTotal(),
		collectDuration: metricFactory.NewProbeDurationSeconds(),
	}
}

// Name 返回采集器名称
func (c *StorageCollector) Name() string { return c.name }

// Init 检查目录是否存在
func (c *StorageCollector) Init() error {
	fi, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("storage probe: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("storage probe: %s is not a directory", c.path)
	}
	return nil
}

// Collect 执行探测
func (c *StorageCollector) Collect(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.collectDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	st, err := c.usage(ctx, c.path)
	if err != nil {
		c.collectErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("get disk usage of %s: %w", c.path, err)
	}

	c.metrics.freeBytes.WithLabelValues(c.path).Set(float64(st.Free))
	c.metrics.usageRatio.WithLabelValues(c.path).Set(st.UsedPercent / 100)

	c.log.Debug("storage usage",
		zap.String("path", c.path),
		zap.Uint64("free", st.Free),
		zap.Float64("used_percent", st.UsedPercent))

	if c.minFree > 0 && st.Free < c.minFree {
		return fmt.Errorf("%w: %s has %d bytes free, want at least %d", ErrLowDiskSpace, c.path, st.Free, c.minFree)
	}
	return nil
}

// Close 无需释放资源
func (c *StorageCollector) Close() error { return nil }
