// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/api"
	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/events"
	"github.com/tomtom215/foryou/internal/history"
	"github.com/tomtom215/foryou/internal/logging"
	"github.com/tomtom215/foryou/internal/recommend"
	"github.com/tomtom215/foryou/internal/recommend/storage"
	"github.com/tomtom215/foryou/internal/supervisor"
	"github.com/tomtom215/foryou/internal/supervisor/services"
	"github.com/tomtom215/foryou/internal/sync"
)

// app holds the wired server. close releases what the supervisor tree
// does not own.
type app struct {
	tree    *supervisor.SupervisorTree
	engine  *recommend.Engine
	handler http.Handler
	closers []func() error
}

// newApp opens the stores, loads the current corpus and assembles the
// supervisor tree. A missing or incomplete corpus is an error.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	rawHistory, err := history.Open(ctx, &cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	a.closers = append(a.closers, rawHistory.Close)
	historyStore := history.Instrument(rawHistory)

	artifacts, err := storage.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	a.engine, err = recommend.NewEngine(engineConfig(&cfg.Recommend), historyStore, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	reload := services.NewCorpusReloadService(artifacts, a.engine, cfg.Artifacts.ReloadInterval, logger)
	if _, err := reload.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load corpus from %s: %w", artifacts.Dir(), err)
	}

	wmLog := watermill.NewSlogLogger(logging.NewSlogLogger())
	bus, err := events.NewBus(&cfg.Events, wmLog)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	// Runs before the history store closes; closers run in reverse.
	a.closers = append(a.closers, bus.Close)

	recorder := events.NewRecorder(bus.Publisher, bus.Topic)
	consumer := events.NewConsumer(bus, historyStore, events.DefaultConsumerConfig(), wmLog, logger)

	handler := api.NewHandler(a.engine, recorder, historyStore, logger)
	a.handler = api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(&cfg.Server)).SetupChi()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	a.tree, err = supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	a.tree.AddDataService(reload)
	if gc, ok := rawHistory.(history.GarbageCollector); ok {
		a.tree.AddDataService(history.NewCompactor(gc, 0, logger))
	}

	// Messaging layer
	a.tree.AddMessagingService(consumer)
	if cfg.Trakt.Enabled() {
		fetcher := sync.NewCircuitBreakerClient(sync.NewTraktClient(&cfg.Trakt, logger), sync.BreakerSettings{}, logger)
		a.tree.AddMessagingService(sync.NewTraktSync(fetcher, recorder, cfg.Trakt.SyncInterval(), consumer.Running(), logger))
		logging.Info().Str("username", cfg.Trakt.Username).Dur("interval", cfg.Trakt.SyncInterval()).
			Msg("Trakt sync added to supervisor tree")
	}

	// API layer
	a.tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	version, titles, _ := a.engine.CorpusStatus()
	logging.Info().Int64("corpus_version", version).Int("titles", titles).Str("addr", server.Addr).
		Msg("Server initialized")
	return a, nil
}

// close runs the closers in reverse order of acquisition.
func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Errors while releasing resources")
	}
}

func engineConfig(c *config.RecommendConfig) *recommend.Config {
	return &recommend.Config{
		PageSize:          c.PageSize,
		PriorityRegions:   append([]string(nil), c.PriorityRegions...),
		HistorySeedCount:  c.HistorySeedCount,
		TotalLimit:        c.TotalLimit,
		MinimumRating:     c.MinimumRating,
		NeighborsPerSeed:  c.NeighborsPerSeed,
		CandidatePoolSize: c.CandidatePoolSize,
		ImageBaseURL:      c.ImageBaseURL,
		RankingCacheSize:  c.RankingCacheSize,
		RankingCacheTTL:   c.RankingCacheTTL,
	}
}
