// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ContainerOption configures a test container.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	image        string
	startTimeout time.Duration
}

// WithImage overrides the container image.
func WithImage(image string) ContainerOption {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithStartTimeout sets how long to wait for the container to be ready.
func WithStartTimeout(timeout time.Duration) ContainerOption {
	return func(c *containerConfig) {
		c.startTimeout = timeout
	}
}

// service describes one single-port container.
type service struct {
	name     string
	image    string
	port     string
	cmd      []string
	readyLog string
}

// start runs svc for the duration of t and returns its host:port. The test
// is skipped when no container runtime is reachable and fails when the
// container does not become ready.
func start(t *testing.T, svc service, opts []ContainerOption) (testcontainers.Container, string) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	cfg := &containerConfig{image: svc.image, startTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()
	port := svc.port + "/tcp"
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{port},
			Cmd:          svc.cmd,
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(port),
				wait.ForLog(svc.readyLog),
			).WithStartupTimeout(cfg.startTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start %s container: %v", svc.name, err)
	}

	addr, err := mappedAddr(ctx, container, port)
	if err != nil {
		t.Fatalf("%s container address: %v", svc.name, err)
	}
	return container, addr
}

func mappedAddr(ctx context.Context, container testcontainers.Container, port string) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}
