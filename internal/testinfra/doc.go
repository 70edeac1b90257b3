// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package testinfra starts throwaway Redis and NATS containers for
// integration tests. Every file carries the integration build tag:
//
//	go test -tags integration ./internal/history/... ./internal/events/...
//
// Containers live for the duration of the test that started them. Tests
// are skipped, not failed, where no container runtime is reachable.
//
//	func TestRedisStore(t *testing.T) {
//	    redis := testinfra.NewRedisContainer(t)
//	    // dial redis.Addr
//	}
package testinfra
