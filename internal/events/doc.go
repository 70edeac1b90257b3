// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package events carries watch signals from their producers (the meta
endpoint and the Trakt sync) to the history store over Watermill.

	Recorder --ViewEvent JSON--> topic "history.views" --> Consumer --> history.Store

Two backends are available: an in-process GoChannel bus (default) and NATS
JetStream, which survives restarts and lets several instances share one
history writer through a queue group.

The consumer applies events with the store's idempotent writes, so
redelivery is harmless: a local view upserts by latest timestamp and an
imported view is inserted only when the title is unknown.
*/
package events
