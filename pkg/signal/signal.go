package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// NotifyContext 返回在收到 SIGINT/SIGTERM 时取消的 context。
// A second signal exits the process immediately. The returned stop function
// releases the signal handler.
func NotifyContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
		cancel()
	}

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal, finishing current cycle", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case sig := <-sigChan:
			logger.Warn("received second signal, exiting", zap.String("signal", sig.String()))
			os.Exit(130)
		case <-done:
		}
	}()
	return ctx, stop
}

// Shutdown 带超时执行关闭函数
func Shutdown(logger *zap.Logger, timeout time.Duration, shutdownFunc func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- shutdownFunc(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown failed", zap.Error(err))
			return
		}
		logger.Info("shutdown completed")
	case <-ctx.Done():
		logger.Warn("shutdown timed out", zap.Duration("timeout", timeout))
	}
}
