// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package sync imports a user's Trakt watched history.

TraktClient calls GET {base}/users/{user}/watched/{movies|shows} with the
trakt-api-version and trakt-api-key headers. Requests are rate limited with
golang.org/x/time/rate and retried with exponential backoff on 429 and 5xx
responses, honouring Retry-After. CircuitBreakerClient adds a
sony/gobreaker breaker on top that opens at a 60% failure rate over at
least 10 requests.

TraktSync is a suture service. It waits until the event consumer is
subscribed, syncs once, then syncs every interval. Movies and shows are
fetched concurrently. Each entry with an IMDb ID becomes a view with source
trakt, timestamped with last_watched_at (or now when Trakt omits it), and
is published on the event bus. The consumer applies trakt views with
insert-if-absent semantics, so a sync never overwrites a local view.

The service is only started when both TRAKT_USERNAME and TRAKT_CLIENT_ID
are set.
*/
package sync
