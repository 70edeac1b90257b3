// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package supervisor runs the recommendation server's long-lived services
under a suture v4 supervisor tree.

# Overview

	RootSupervisor ("foryou")
	├── DataSupervisor ("data-layer")
	│   ├── CorpusReloadService
	│   └── history.Compactor (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── events.Consumer
	│   └── sync.TraktSync (when Trakt credentials are configured)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer restarts independently. A Trakt outage that crash-loops the
sync never restarts the HTTP server, and a failed corpus reload leaves the
previous corpus serving.

# Services

Anything with Serve(ctx context.Context) error and String() string can be
added. Serve must return promptly once ctx is done; returning
suture.ErrDoNotRestart stops restarts for that service.

# Logging

Supervisor events (restarts, backoff, panics) go through sutureslog to the
slog logger passed to NewSupervisorTree. The server bridges that logger to
zerolog with logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewCorpusReloadService(store, engine, interval, logger))
	tree.AddMessagingService(consumer)
	tree.AddAPIService(services.NewHTTPServerService(srv, timeout, logger))
	return tree.Serve(ctx)
*/
package supervisor
