// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

//go:build integration

package testinfra

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// DefaultRedisImage is the Redis image used by integration tests.
const DefaultRedisImage = "redis:7-alpine"

// RedisContainer is a running Redis instance.
type RedisContainer struct {
	testcontainers.Container
	Addr string // host:port reachable from the test
}

// NewRedisContainer starts Redis for the duration of t.
func NewRedisContainer(t *testing.T, opts ...ContainerOption) *RedisContainer {
	t.Helper()
	c, addr := start(t, service{
		name:     "redis",
		image:    DefaultRedisImage,
		port:     "6379",
		readyLog: "Ready to accept connections",
	}, opts)
	return &RedisContainer{Container: c, Addr: addr}
}
