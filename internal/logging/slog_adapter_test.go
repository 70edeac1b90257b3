// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_WritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	slogger.Info("service started",
		"service", "http-server",
		"restarts", 2,
		"backoff", time.Second,
		"err", errors.New("boom"),
	)

	out := buf.String()
	for _, want := range []string{
		`"message":"service started"`,
		`"service":"http-server"`,
		`"restarts":2`,
		`"err":"boom"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf))).
		WithGroup("supervisor").
		With("name", "root")

	slogger.Warn("backoff")

	if !strings.Contains(buf.String(), `"supervisor.name":"root"`) {
		t.Errorf("grouped attr missing: %s", buf.String())
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in).String(); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
