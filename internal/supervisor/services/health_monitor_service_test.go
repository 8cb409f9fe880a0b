// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeMonitor struct {
	interval chan time.Duration
}

func (f *fakeMonitor) RunHealthMonitor(ctx context.Context, interval time.Duration) {
	f.interval <- interval
	<-ctx.Done()
}

func TestHealthMonitorService_Serve(t *testing.T) {
	mon := &fakeMonitor{interval: make(chan time.Duration, 1)}
	svc := NewHealthMonitorService(mon, 0)

	if svc.String() != "datastore-health-monitor" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case got := <-mon.interval:
		if got != 60*time.Second {
			t.Errorf("interval = %v, want 60s default", got)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor was not started")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
