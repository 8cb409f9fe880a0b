// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is built only with the integration tag and needs a
// reachable Docker daemon; tests skip when Docker is missing:
//
//	func TestLoad_Postgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    cfg := pg.DatabaseConfig()
//	    // ...
//	}
//
// Run with:
//
//	go test -tags integration ./internal/...
package testinfra
