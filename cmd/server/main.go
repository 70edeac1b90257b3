// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package main is the entry point for the ForYou recommendation server.
//
// ForYou recommends titles similar to what was watched recently. It serves
// a media-center addon protocol (manifest, catalog, meta) and a JSON API
// from a precomputed corpus published by foryou-builder.
//
// # Startup
//
//  1. Configuration: .env (godotenv), then koanf defaults, config file and
//     environment variables
//  2. History store: BadgerDB (default) or Redis
//  3. Corpus: the current artifact set is loaded; startup fails when none
//     is published or the set is incomplete
//  4. Event bus: in-process channel (default) or NATS JetStream
//  5. Supervisor tree: corpus reload, history compaction, event consumer,
//     Trakt sync (when configured) and the HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM shut down gracefully. SIGHUP checks the artifact store
// for a newer corpus without restarting.
//
// # Example Usage
//
//	foryou-builder build --artifacts-dir ./artifacts
//	ARTIFACTS_DIR=./artifacts SERVER_PORT=7000 ./foryou
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/logging"
)

func main() {
	// A missing .env is normal in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "foryou-server",
		Output:  os.Stderr,
	})

	logging.Info().
		Str("artifacts_dir", cfg.Artifacts.Dir).
		Str("history_backend", cfg.History.Backend).
		Str("events_backend", cfg.Events.Backend).
		Bool("trakt_enabled", cfg.Trakt.Enabled()).
		Msg("Starting ForYou with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer app.close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := app.tree.ServeBackground(ctx)

	// ServeBackground delivers exactly one result and never closes the channel.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := app.tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
