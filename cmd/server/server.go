package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/config"
	"github.com/tg-collector/pkg/poller"
)

const defaultShutdownTimeout = 5 * time.Second

// StatusSource reports the poll loop state. *poller.Loop implements it.
type StatusSource interface {
	State() poller.State
	LastReport() *poller.Report
}

// Server HTTP服务：/metrics、/health 和 /dashboard/
type Server struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	registry *prometheus.Registry
	status   StatusSource
	pagesDir string
	mux      *customMux

	mu       sync.Mutex
	listener net.Listener
}

// statusWriter 包装ResponseWriter，捕获状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 捕获状态码
func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// customMux 记录已注册的路由
type customMux struct {
	http.ServeMux
	routes []string
}

func (m *customMux) Handle(pattern string, handler http.Handler) {
	m.routes = append(m.routes, pattern)
	m.ServeMux.Handle(pattern, handler)
}

func (m *customMux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(handler))
}

// NewHTTPServer 创建HTTP服务实例。pagesDir 是图片与页面目录。
func NewHTTPServer(cfg config.ServerConfig, logger *zap.Logger, registry *prometheus.Registry, status StatusSource, pagesDir string) *Server {
	srv := &Server{
		cfg:      cfg,
		logger:   logger.Named("http"),
		registry: registry,
		status:   status,
		pagesDir: pagesDir,
		mux:      &customMux{},
	}
	srv.registerEndpoints()

	srv.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.logMiddleware(srv.mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// logMiddleware 统一日志记录
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>tg-collector</title></head>
<body>
<h1>tg-collector</h1>
<a href="/dashboard/">/dashboard/ - calls in progress graphs</a><br>
<a href="/health">/health - poll loop status</a><br>
<a href="/metrics">/metrics - Prometheus metrics</a>
</body>
</html>
`

func (s *Server) registerEndpoints() {
	s.mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})

	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(s.logger),
	}))

	s.mux.HandleFunc("/health", s.health)

	s.mux.Handle("/dashboard/", http.StripPrefix("/dashboard/", http.FileServer(http.Dir(s.pagesDir))))
}

type cycleStatus struct {
	Started        time.Time `json:"started"`
	Finished       time.Time `json:"finished"`
	Duration       string    `json:"duration"`
	Requests       int       `json:"requests"`
	FailedRequests int       `json:"failed_requests"`
	Devices        int       `json:"devices"`
	DeviceErrors   int       `json:"device_errors"`
	Rendered       int       `json:"rendered"`
	ProbeError     string    `json:"probe_error,omitempty"`
	PageError      string    `json:"page_error,omitempty"`
}

type healthStatus struct {
	State     string       `json:"state"`
	LastCycle *cycleStatus `json:"last_cycle,omitempty"`
}

// health 返回循环状态与最近一次周期摘要。循环结束后返回 503。
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	state := s.status.State()
	body := healthStatus{State: state.String()}
	if rep := s.status.LastReport(); rep != nil {
		cs := &cycleStatus{
			Started:        rep.Started,
			Finished:       rep.Finished,
			Duration:       rep.Duration().String(),
			Requests:       len(rep.Requests),
			FailedRequests: rep.FailedRequests(),
			Devices:        rep.Result.Len(),
			DeviceErrors:   len(rep.Devices),
			Rendered:       len(rep.Rendered),
		}
		if rep.ProbeErr != nil {
			cs.ProbeError = rep.ProbeErr.Error()
		}
		if rep.PageErr != nil {
			cs.PageError = rep.PageErr.Error()
		}
		body.LastCycle = cs
	}

	w.Header().Set("Content-Type", "application/json")
	if state == poller.Terminal {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write health response", zap.Error(err))
	}
}

// Start 启动HTTP服务（非阻塞）。监听失败直接返回错误。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.Strings("routes", s.mux.routes),
	)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭HTTP服务
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded")
			return nil
		}
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.logger.Info("HTTP server shutdown successfully")
	return nil
}
