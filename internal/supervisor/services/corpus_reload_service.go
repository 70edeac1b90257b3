// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package services

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/recommend"
	"github.com/tomtom215/foryou/internal/recommend/storage"
)

// ArtifactSource is the read side of the artifact store. *storage.Store
// implements it.
type ArtifactSource interface {
	CurrentVersion() (int64, error)
	LoadCurrent(ctx context.Context) (*storage.ArtifactSet, error)
}

// CorpusInstaller receives reloaded corpora. *recommend.Engine implements it.
type CorpusInstaller interface {
	CorpusStatus() (version int64, titles int, loaded bool)
	Swap(h *recommend.CorpusHandle) *recommend.CorpusHandle
}

// CorpusReloadService installs newly published artifact versions into the
// engine. It checks every interval, on SIGHUP and on Trigger. A version
// that fails to load is logged and the engine keeps serving the corpus it
// has.
type CorpusReloadService struct {
	source   ArtifactSource
	engine   CorpusInstaller
	interval time.Duration
	trigger  chan struct{}
	signals  []os.Signal
	logger   zerolog.Logger
}

// NewCorpusReloadService creates the service. A non-positive interval
// disables polling; SIGHUP and Trigger still reload.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorpusReloadService(source ArtifactSource, engine CorpusInstaller, interval time.Duration, logger zerolog.Logger) *CorpusReloadService {
	return &CorpusReloadService{
		source:   source,
		engine:   engine,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		signals:  []os.Signal{syscall.SIGHUP},
		logger:   logger.With().Str("service", "corpus-reload").Logger(),
	}
}

// Trigger requests a reload check. It never blocks.
func (s *CorpusReloadService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Reload installs the current artifact version if it is newer than the
// served one (or nothing is served yet). It reports whether a swap
// happened.
func (s *CorpusReloadService) Reload(ctx context.Context) (bool, error) {
	current, err := s.source.CurrentVersion()
	if err != nil {
		metrics.CorpusReloads.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("read current artifact version: %w", err)
	}
	if served, _, loaded := s.engine.CorpusStatus(); loaded && current <= served {
		metrics.CorpusReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	start := time.Now()
	set, err := s.source.LoadCurrent(ctx)
	if err != nil {
		metrics.CorpusReloads.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("load artifacts v%d: %w", current, err)
	}
	handle, err := recommend.FromArtifacts(set)
	if err != nil {
		metrics.CorpusReloads.WithLabelValues("failed").Inc()
		return false, err
	}

	prev := s.engine.Swap(handle)
	metrics.CorpusReloads.WithLabelValues("swapped").Inc()

	event := s.logger.Info().Int64("version", handle.Version()).Int("titles", handle.Len()).
		Dur("load_duration", time.Since(start))
	if prev != nil {
		event = event.Int64("previous_version", prev.Version())
	}
	event.Msg("corpus reloaded")
	return true, nil
}

// Serve implements suture.Service.
func (s *CorpusReloadService) Serve(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	if len(s.signals) > 0 {
		signal.Notify(hup, s.signals...)
		defer signal.Stop(hup)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.logger.Info().Dur("interval", s.interval).Msg("corpus reload service running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-hup:
			s.logger.Info().Msg("SIGHUP received, checking for a new corpus")
		case <-s.trigger:
		}
		if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("corpus reload failed, keeping the current corpus")
		}
	}
}

// String implements fmt.Stringer for suture.
func (s *CorpusReloadService) String() string {
	return "corpus-reload"
}
