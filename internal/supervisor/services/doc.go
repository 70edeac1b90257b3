// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package services provides suture.Service wrappers for components that do
not already speak suture's Serve(ctx) error contract.

  - HTTPServerService translates http.Server's ListenAndServe/Shutdown
    pair into Serve with a bounded graceful shutdown.
  - CorpusReloadService watches the artifact store and swaps newer corpus
    versions into the recommendation engine.

The events consumer, the Trakt sync and the history compactor implement
suture.Service themselves and are added to the tree directly.
*/
package services
