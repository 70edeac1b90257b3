// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/models"
)

// Recommender serves recommendation pages. *recommend.Engine implements it.
type Recommender interface {
	GetRecommendations(ctx context.Context, kind models.Kind, skip int) (*models.RecommendationPage, error)
	CorpusStatus() (version int64, titles int, loaded bool)
}

// ViewRecorder accepts watch signals. *events.Recorder implements it.
type ViewRecorder interface {
	Record(ctx context.Context, v models.View) error
}

// HistoryStats reports the size of the watch history. history.Store
// implements it.
type HistoryStats interface {
	Count(ctx context.Context) (int, error)
}

// Handler contains the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_addon.go: manifest, meta and catalog (addon protocol)
//   - handlers_recommend.go: /api/v1/recommendations
//   - handlers_health.go: liveness and readiness
//   - handlers_helpers.go: response helpers
type Handler struct {
	engine    Recommender
	recorder  ViewRecorder
	history   HistoryStats
	manifest  *Manifest
	startTime time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

// NewHandler creates the handler set. history may be nil, in which case
// readiness does not report history details.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, recorder ViewRecorder, history HistoryStats, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		recorder:  recorder,
		history:   history,
		manifest:  DefaultManifest(),
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}
