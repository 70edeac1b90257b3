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

// DefaultNATSImage is the NATS image used by integration tests.
const DefaultNATSImage = "nats:2.10-alpine"

// NATSContainer is a running NATS server with JetStream enabled.
type NATSContainer struct {
	testcontainers.Container
	URL string // nats://host:port
}

// NewNATSContainer starts NATS with JetStream for the duration of t.
func NewNATSContainer(t *testing.T, opts ...ContainerOption) *NATSContainer {
	t.Helper()
	c, addr := start(t, service{
		name:     "nats",
		image:    DefaultNATSImage,
		port:     "4222",
		cmd:      []string{"-js"},
		readyLog: "Server is ready",
	}, opts)
	return &NATSContainer{Container: c, URL: "nats://" + addr}
}
