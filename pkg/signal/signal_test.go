package signal

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifyContextCancelsOnSignal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := NotifyContext(context.Background(), zap.New(core))
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled")
	}
	require.Eventually(t, func() bool {
		return logs.FilterMessageSnippet("shutdown signal").Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	Shutdown(log, time.Second, func(context.Context) error { return nil })
	assert.Equal(t, 1, logs.FilterMessage("shutdown completed").Len())

	Shutdown(log, time.Second, func(context.Context) error { return errors.New("busy") })
	assert.Equal(t, 1, logs.FilterMessage("shutdown failed").Len())

	Shutdown(log, 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	assert.Equal(t, 1, logs.FilterMessage("shutdown timed out").Len())
}
