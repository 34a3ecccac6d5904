package perfmon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/metrics"
)

// ErrUnexpectedStatus is returned for any non-2xx answer of the perfmon service.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Config 采集器配置
type Config struct {
	Credentials Credentials
	Devices     []Device
	// Timeout bounds one request, connect to last byte.
	Timeout time.Duration
	// Concurrency is the maximum number of requests in flight.
	Concurrency int
}

// Collector executes collection requests and extracts per-device samples.
// It holds no per-request state; Collect is safe for concurrent use.
type Collector struct {
	name        string
	httpClient  *http.Client
	creds       Credentials
	devices     map[string]struct{}
	timeout     time.Duration
	concurrency int
	log         *zap.Logger

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector 创建 perfmon 采集器
func NewCollector(cfg Config, client *http.Client, log *zap.Logger, metricFactory *metrics.MetricFactory) *Collector {
	devices := make(map[string]struct{}, len(cfg.Devices))
	for _, d := range cfg.Devices {
		devices[d.Name] = struct{}{}
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		name:            "perfmon-collector",
		httpClient:      client,
		creds:           cfg.Credentials,
		devices:         devices,
		timeout:         cfg.Timeout,
		concurrency:     concurrency,
		log:             log.Named("perfmon"),
		requestsTotal:   metricFactory.NewPerfmonRequestsTotal(),
		requestDuration: metricFactory.NewPerfmonRequestDurationSeconds(),
	}
}

// Name 返回采集器名称
func (c *Collector) Name() string { return c.name }

// CollectAll runs every request with bounded parallelism and waits for all of
// them. A failed request contributes no samples; its error is kept in the
// matching RequestResult, which is returned in request order.
func (c *Collector) CollectAll(ctx context.Context, reqs []Request) ([]Sample, []RequestResult) {
	results := make([]RequestResult, len(reqs))
	perRequest := make([][]Sample, len(reqs))

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, req := range reqs {
		p.Go(func() {
			start := time.Now()
			samples, err := c.Collect(ctx, req)
			results[i] = RequestResult{
				Request:  req,
				Samples:  len(samples),
				Duration: time.Since(start),
				Err:      err,
			}
			perRequest[i] = samples
		})
	}
	p.Wait()

	var all []Sample
	for _, s := range perRequest {
		all = append(all, s...)
	}
	return all, results
}

// Collect executes one request and returns the samples of configured devices.
func (c *Collector) Collect(ctx context.Context, req Request) ([]Sample, error) {
	start := time.Now()
	samples, err := c.collect(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
		c.log.Warn("perfmon request failed",
			zap.String("server", req.Server.Address),
			zap.String("counter", req.Counter.Label()),
			zap.Error(err))
	} else {
		c.log.Debug("perfmon request done",
			zap.String("server", req.Server.Address),
			zap.String("counter", req.Counter.Label()),
			zap.Int("samples", len(samples)))
	}
	c.requestsTotal.WithLabelValues(req.Server.Address, req.Counter.Label(), status).Inc()
	c.requestDuration.WithLabelValues(req.Server.Address).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("query %q on %s: %w", req.Counter.Label(), req.Server.Address, err)
	}
	return samples, nil
}

func (c *Collector) collect(ctx context.Context, req Request) ([]Sample, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := buildEnvelope(req.Server.Address, req.Counter.Label())
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(req.Server), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("SOAPAction", soapAction)
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.SetBasicAuth(c.creds.Username, c.creds.Password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	items, err := decodeCounterArray(resp.Body)
	if err != nil {
		return nil, err
	}
	return c.extract(req, items), nil
}

// extract applies the counter pattern to every entry. Entries of other
// metrics and of unconfigured devices are skipped without error.
func (c *Collector) extract(req Request, items []counterInfo) []Sample {
	var samples []Sample
	for _, item := range items {
		device, ok := req.Counter.Match(strings.TrimSpace(item.Name))
		if !ok {
			continue
		}
		if _, configured := c.devices[device]; !configured {
			continue
		}
		value, err := strconv.ParseInt(strings.TrimSpace(item.Value), 10, 64)
		if err != nil {
			c.log.Debug("skip counter with invalid value",
				zap.String("name", item.Name),
				zap.String("value", item.Value),
				zap.Error(err))
			continue
		}
		samples = append(samples, Sample{
			Device:  device,
			Value:   value,
			Server:  req.Server.Address,
			Counter: req.Counter,
		})
	}
	return samples
}

func endpoint(srv Server) string {
	u := url.URL{Scheme: "https", Host: srv.Address, Path: servicePath}
	return u.String()
}
