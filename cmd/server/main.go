// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package main is the entry point for the RetailSight server.
//
// RetailSight ingests household, transaction and product CSV files into a
// relational datastore and serves household lookups and an aggregate
// dashboard over HTTP.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, environment (koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Datastore: connection supervisor over pgx (PostgreSQL) or DuckDB
//  4. Schema: CREATE TABLE IF NOT EXISTS on every new connection when
//     DB_SCHEMA_MODE allows it
//  5. Supervisor tree: datastore health monitor and HTTP server
//
// A datastore that is unreachable at startup is not fatal. The supervisor
// reconnects lazily on the first request and the health endpoints report
// degraded until then.
//
// # Example Usage
//
//	export DB_SERVER=db.example.com
//	export DB_DATABASE=retail
//	export DB_USER=retail
//	export DB_PASSWORD=secret
//	./retailsight
//
// Embedded datastore for development:
//
//	export DB_DRIVER=duckdb
//	export DB_PATH=./retail.duckdb
//	./retailsight
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree, which drains the HTTP server,
// and then close the datastore pool.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/retailsight/internal/api"
	"github.com/tomtom215/retailsight/internal/config"
	"github.com/tomtom215/retailsight/internal/database"
	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/metrics"
	"github.com/tomtom215/retailsight/internal/supervisor"
	"github.com/tomtom215/retailsight/internal/supervisor/services"
)

// startupConnectTimeout bounds the initial connect sequence so a dead
// datastore does not delay the HTTP server indefinitely.
const startupConnectTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", api.Version).
		Str("driver", cfg.Database.Driver).
		Str("datastore", cfg.Database.Redacted()).
		Str("environment", cfg.Server.Environment).
		Msg("Starting RetailSight")

	connector, err := database.NewConnector(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid datastore settings")
	}
	var supOpts []database.Option
	if cfg.Database.ShouldCreateSchema() {
		// Every new connection gets the tables, including the fresh, empty
		// database an in-memory DuckDB reconnect produces.
		supOpts = append(supOpts, database.WithConnectHook(database.CreateTables))
	}
	sup := database.NewSupervisor(connector, &cfg.Database, supOpts...)
	defer sup.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectAtStartup(ctx, sup)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(sup, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddDataService(services.NewHealthMonitorService(sup, cfg.Database.HealthCheckInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("RetailSight stopped")
}

// connectAtStartup makes the first connect attempt. Failure is logged;
// requests reconnect on demand.
func connectAtStartup(ctx context.Context, sup *database.Supervisor) {
	ctx, cancel := context.WithTimeout(ctx, startupConnectTimeout)
	defer cancel()

	if _, err := sup.EnsureReady(ctx); err != nil {
		logging.Warn().Err(err).Msg("Datastore unavailable at startup, will reconnect on demand")
		return
	}
	logging.Info().Msg("Datastore connected")
}
