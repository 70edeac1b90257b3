// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package api provides the HTTP surface using the Chi router.

Two families of routes are served.

Addon protocol (unenveloped JSON, consumed by media-center clients):

	GET /manifest.json
	GET /meta/{type}/{id}.json                       records a local view
	GET /catalog/{type}/for_you_recs.json            first page
	GET /catalog/{type}/for_you_recs/skip={n}.json   page starting at n

REST API (models.APIResponse envelope):

	GET /api/v1/recommendations?kind=movie&skip=0
	GET /api/v1/health/live
	GET /api/v1/health/ready                         503 until a corpus is loaded
	GET /metrics                                     Prometheus exposition

Middleware order: request ID, real IP, access log, panic recovery, CORS,
Prometheus instrumentation, then per-group rate limiting (go-chi/httprate)
and gzip compression. Health endpoints get their own, more permissive rate
limit.

Meta requests are the watch signal: the handler publishes a view through
the event bus and answers {"meta":{}} immediately. The history write
happens asynchronously in the events consumer.
*/
package api
