// Package server provides graceful shutdown functionality for LoginSentry services
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	gs := New(Config{
		Server:          &http.Server{Addr: ":0"},
		Logger:          logger,
		ShutdownTimeout: 10 * time.Second,
	})

	assert.NotNil(t, gs)
	assert.Equal(t, 10*time.Second, gs.shutdownTimeout)
}

func TestNew_DefaultTimeout(t *testing.T) {
	gs := New(Config{
		Server: &http.Server{Addr: ":0"},
		Logger: zaptest.NewLogger(t),
	})

	assert.Equal(t, 30*time.Second, gs.shutdownTimeout)
}

func TestShutdownFunc(t *testing.T) {
	called := false
	fn := NewShutdownFunc("test", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "test", fn.Name())

	err := fn.Shutdown(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
}

func TestShutdownFunc_WithError(t *testing.T) {
	fn := NewShutdownFunc("failing", func(ctx context.Context) error {
		return assert.AnError
	})

	err := fn.Shutdown(context.Background())
	assert.Equal(t, assert.AnError, err)
}

func TestShutdown_RunsComponents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gs := New(Config{
		Server:          &http.Server{Addr: ":0"},
		Logger:          logger,
		ShutdownTimeout: 5 * time.Second,
	})

	var closed int32
	gs.AddShutdownFunc("first", func(ctx context.Context) error {
		atomic.AddInt32(&closed, 1)
		return nil
	})
	gs.AddShutdownFunc("second", func(ctx context.Context) error {
		atomic.AddInt32(&closed, 1)
		return nil
	})

	gs.shutdown()

	assert.Equal(t, int32(2), atomic.LoadInt32(&closed))
}

func TestStart_SignalTriggersShutdown(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gs := New(Config{
		Server:          &http.Server{Addr: ":0"},
		Logger:          logger,
		ShutdownTimeout: 2 * time.Second,
	})

	var closed int32
	gs.AddShutdownFunc("component", func(ctx context.Context) error {
		atomic.AddInt32(&closed, 1)
		return nil
	})

	done := make(chan struct{})
	go func() {
		gs.Start()
		close(done)
	}()

	// Give Start time to register the signal handler, then trigger.
	time.Sleep(50 * time.Millisecond)
	gs.signalChan <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}

func TestCloseHelpers(t *testing.T) {
	db := &fakeCloser{}
	redis := &fakeCloser{}

	require.NoError(t, CloseDB(db).Shutdown(context.Background()))
	require.NoError(t, CloseRedis(redis).Shutdown(context.Background()))
	assert.True(t, db.closed)
	assert.True(t, redis.closed)

	tracerCalled := false
	tracer := CloseTracer(func(ctx context.Context) error {
		tracerCalled = true
		return nil
	})
	require.NoError(t, tracer.Shutdown(context.Background()))
	assert.True(t, tracerCalled)
	assert.Equal(t, "tracer", tracer.Name())
}

type fakeCloser struct {
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}
