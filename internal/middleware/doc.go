// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package middleware provides the HTTP middleware shared by the addon and
/api/v1 routes.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation IDs.
  - PrometheusMetrics: request counters, latency histograms and an
    in-flight gauge labelled by chi route pattern.
  - Compression: pooled gzip for clients that send Accept-Encoding: gzip.

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
configured in the api package.
*/
package middleware
