// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/retailsight/internal/config"
	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/metrics"
	"github.com/tomtom215/retailsight/internal/models"
)

// State is the lifecycle state of the supervised connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

const (
	defaultMaxRetries          = 3
	defaultRetryDelay          = 5 * time.Second
	defaultHealthCheckInterval = 60 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSleep replaces the inter-retry wait.
func WithSleep(fn SleepFunc) Option {
	return func(s *Supervisor) {
		s.sleep = fn
	}
}

// ConnectHook runs on every freshly connected handle before it is published.
type ConnectHook func(ctx context.Context, h *Handle) error

// WithConnectHook runs fn after each successful connect. A hook error counts
// as a failed attempt, so the handle is discarded and the attempt retried.
func WithConnectHook(fn ConnectHook) Option {
	return func(s *Supervisor) {
		s.onConnect = fn
	}
}

// connectAttempt is one connect sequence shared by every caller that asked
// for a handle while it was running.
type connectAttempt struct {
	done   chan struct{}
	handle *Handle
	err    error
}

// Supervisor owns the single pooled datastore handle. It connects with
// bounded retries, reconnects lazily when a probe fails, and runs an optional
// periodic health monitor. Transitions are serialized by mu and at most one
// connect sequence is in flight.
type Supervisor struct {
	connector  Connector
	maxRetries int
	retryDelay time.Duration
	interval   time.Duration
	sleep      SleepFunc
	onConnect  ConnectHook

	state   atomic.Int32
	retries atomic.Int32

	mu       sync.Mutex
	handle   *Handle
	inflight *connectAttempt
	closed   bool

	baseCtx    context.Context
	baseCancel context.CancelFunc

	monitorCancel context.CancelFunc
	wg            sync.WaitGroup
	shutdownOnce  sync.Once
}

// NewSupervisor creates a Supervisor in the Disconnected state. No connection
// is made until the first EnsureReady.
func NewSupervisor(connector Connector, cfg *config.DatabaseConfig, opts ...Option) *Supervisor {
	s := &Supervisor{
		connector:  connector,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		interval:   defaultHealthCheckInterval,
		sleep:      sleepContext,
	}
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			s.maxRetries = cfg.MaxRetries
		}
		if cfg.RetryDelay >= 0 {
			s.retryDelay = cfg.RetryDelay
		}
		if cfg.HealthCheckInterval > 0 {
			s.interval = cfg.HealthCheckInterval
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	s.setState(StateDisconnected)
	return s
}

// State returns the current state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// IsReady reports whether the last known state is Ready. It never connects.
func (s *Supervisor) IsReady() bool {
	return s.State() == StateReady
}

// Retries returns the failed-attempt counter of the current or last connect sequence.
func (s *Supervisor) Retries() int {
	return int(s.retries.Load())
}

// HealthCheckInterval returns the configured monitor interval.
func (s *Supervisor) HealthCheckInterval() time.Duration {
	return s.interval
}

// PoolStats returns pool statistics for the current handle, or nil when
// there is none.
func (s *Supervisor) PoolStats() *models.PoolStats {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	st := h.Stats()
	return &models.PoolStats{OpenConnections: st.OpenConnections, InUse: st.InUse, Idle: st.Idle}
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	metrics.DBSupervisorState.Set(float64(st))
}

// EnsureReady returns a live handle. A Ready handle is probed with SELECT 1
// first; otherwise the caller starts or joins the in-flight connect sequence
// and receives its outcome. A caller whose ctx ends while waiting gets the
// ctx error while the sequence continues for the others.
func (s *Supervisor) EnsureReady(ctx context.Context) (*Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	if s.inflight == nil && s.State() == StateReady && s.handle != nil {
		h := s.handle
		s.mu.Unlock()

		err := h.probe(ctx)
		if err == nil {
			return h, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.DBProbeFailures.WithLabelValues("request").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Datastore probe failed, reconnecting")

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if s.inflight == nil && s.handle != nil && s.handle != h && s.State() == StateReady {
			// Another caller already replaced the handle.
			fresh := s.handle
			s.mu.Unlock()
			return fresh, nil
		}
		if s.handle == h && s.inflight == nil {
			s.setState(StateDegraded)
		}
	}

	attempt := s.inflight
	if attempt == nil {
		attempt = s.startConnectLocked()
	}
	s.mu.Unlock()

	select {
	case <-attempt.done:
		return attempt.handle, attempt.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startConnectLocked must be called with mu held.
func (s *Supervisor) startConnectLocked() *connectAttempt {
	a := &connectAttempt{done: make(chan struct{})}
	s.inflight = a
	stale := s.handle
	s.handle = nil
	s.retries.Store(0)
	s.setState(StateConnecting)

	s.wg.Add(1)
	go s.runConnect(a, stale)
	return a
}

// runConnect performs up to maxRetries attempts, waiting retryDelay after
// each failed attempt that has another attempt left.
func (s *Supervisor) runConnect(a *connectAttempt, stale *Handle) {
	defer s.wg.Done()

	if stale != nil {
		closeWithLog(stale.db, "stale datastore connection")
	}

	ctx := s.baseCtx
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		h, err := s.connect(ctx)
		metrics.RecordConnectAttempt(err)
		if err == nil {
			s.finishConnect(a, h, nil)
			logging.Info().Int("attempt", attempt).Msg("Datastore connection established")
			return
		}

		lastErr = err
		s.retries.Store(int32(attempt))
		logging.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.maxRetries).
			Time("at", time.Now()).
			Msg("Datastore connect attempt failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < s.maxRetries {
			if err := s.sleep(ctx, s.retryDelay); err != nil {
				break
			}
		}
	}

	s.finishConnect(a, nil, lastErr)
}

// connect opens one handle and runs the connect hook on it.
func (s *Supervisor) connect(ctx context.Context) (*Handle, error) {
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	h := &Handle{db: conn}
	if s.onConnect != nil {
		if err := s.onConnect(ctx, h); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("prepare new connection: %w", err)
		}
	}
	return h, nil
}

// finishConnect publishes the outcome of a connect sequence.
func (s *Supervisor) finishConnect(a *connectAttempt, h *Handle, lastErr error) {
	s.mu.Lock()
	switch {
	case s.closed:
		if h != nil {
			closeQuietly(h.db)
		}
		a.err = ErrClosed
	case h != nil:
		s.handle = h
		s.retries.Store(0)
		s.setState(StateReady)
		a.handle = h
	default:
		s.setState(StateDegraded)
		a.err = &ConnectionError{Attempts: s.Retries(), Cause: lastErr}
		logging.Error().
			Err(lastErr).
			Int("attempts", s.Retries()).
			Time("at", time.Now()).
			Msg("Datastore connect retries exhausted")
	}
	s.inflight = nil
	s.mu.Unlock()
	close(a.done)
}

// StartHealthMonitor runs RunHealthMonitor in the background until Shutdown.
// A non-positive interval uses the configured one.
func (s *Supervisor) StartHealthMonitor(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.monitorCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.monitorCancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunHealthMonitor(ctx, interval)
	}()
}

// RunHealthMonitor probes the handle every interval until ctx is done or the
// Supervisor shuts down. A failed probe marks the handle Degraded and triggers
// one EnsureReady; failures are logged and never returned.
func (s *Supervisor) RunHealthMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.baseCtx.Done():
			return
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

// checkHealth runs one monitor tick.
func (s *Supervisor) checkHealth(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.inflight != nil {
		s.mu.Unlock()
		return
	}
	h := s.handle
	ready := s.State() == StateReady
	s.mu.Unlock()

	if h != nil && ready {
		err := h.probe(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		metrics.DBProbeFailures.WithLabelValues("monitor").Inc()
		logging.Warn().Err(err).Time("at", time.Now()).Msg("Health monitor probe failed")

		s.mu.Lock()
		if s.handle == h && s.inflight == nil && !s.closed {
			s.setState(StateDegraded)
		}
		s.mu.Unlock()
	}

	if _, err := s.EnsureReady(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Health monitor reconnect failed")
	}
}

// Shutdown stops the monitor, aborts any in-flight backoff and closes the
// handle. Safe to call more than once; later EnsureReady calls return ErrClosed.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.monitorCancel != nil {
			s.monitorCancel()
		}
		s.baseCancel()
		s.mu.Unlock()

		s.wg.Wait()

		s.mu.Lock()
		h := s.handle
		s.handle = nil
		s.setState(StateDisconnected)
		s.mu.Unlock()

		if h != nil {
			closeWithLog(h.db, "datastore connection")
		}
		logging.Info().Msg("Connection supervisor shut down")
	})
}

// sleepContext waits for d unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
