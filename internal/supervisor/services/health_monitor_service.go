// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package services

import (
	"context"
	"time"
)

// HealthMonitor is implemented by *database.Supervisor.
type HealthMonitor interface {
	RunHealthMonitor(ctx context.Context, interval time.Duration)
}

// HealthMonitorService runs the datastore liveness probe loop under the
// supervisor tree. Probe failures are handled by the monitor itself and
// never end the service.
type HealthMonitorService struct {
	monitor  HealthMonitor
	interval time.Duration
}

// NewHealthMonitorService creates the service. A non-positive interval
// falls back to 60s.
func NewHealthMonitorService(monitor HealthMonitor, interval time.Duration) *HealthMonitorService {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &HealthMonitorService{monitor: monitor, interval: interval}
}

// Serve implements suture.Service and blocks until ctx is canceled.
func (s *HealthMonitorService) Serve(ctx context.Context) error {
	s.monitor.RunHealthMonitor(ctx, s.interval)
	return ctx.Err()
}

func (s *HealthMonitorService) String() string {
	return "datastore-health-monitor"
}
