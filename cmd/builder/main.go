// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Command foryou-builder builds the recommendation corpus offline.
//
// It reads the IMDb datasets (local files or URLs) through DuckDB, filters
// and vectorises the catalog, and publishes a versioned artifact set that
// the server picks up on its next reload or SIGHUP.
//
//	foryou-builder build --artifacts-dir ./artifacts
//	foryou-builder versions
//	foryou-builder prune --keep 2
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Set at link time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
