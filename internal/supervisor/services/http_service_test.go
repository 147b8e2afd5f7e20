// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeServer struct {
	listenErr    error
	listenDone   chan struct{}
	shutdownSeen atomic.Bool
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.listenDone
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdownSeen.Store(true)
	close(f.listenDone)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	fake := &fakeServer{listenDone: make(chan struct{})}
	svc := NewHTTPServerService(fake, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
	if !fake.shutdownSeen.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	fake := &fakeServer{listenErr: errors.New("bind: address already in use")}
	svc := NewHTTPServerService(fake, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("Serve() must surface listener errors")
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(&fakeServer{}, 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
}
