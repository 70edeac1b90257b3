// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/cache"
	"github.com/tomtom215/foryou/internal/logging"
	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
)

// HistoryReader is the read side of the watch-history store.
type HistoryReader interface {
	// RecentByKind returns up to limit title IDs of kind, most recent first.
	RecentByKind(ctx context.Context, kind models.Kind, limit int) ([]string, error)

	// AllSeenIDs returns every title ID in the history.
	AllSeenIDs(ctx context.Context) (map[string]struct{}, error)
}

type rankingKey struct {
	version int64
	seed    string
}

// Engine serves recommendation pages. It is safe for concurrent use.
type Engine struct {
	config  *Config
	history HistoryReader
	logger  zerolog.Logger

	corpus atomic.Pointer[CorpusHandle]

	// rankings memoises per-seed similarity rankings. Nil when disabled.
	rankings *cache.LRU[rankingKey, []Neighbor]

	requestCount  atomic.Int64
	degradedCount atomic.Int64
}

// NewEngine creates an engine. Swap must be called before requests are
// served.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, history HistoryReader, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if history == nil {
		return nil, fmt.Errorf("history reader is required")
	}

	e := &Engine{
		config:  cfg.Clone(),
		history: history,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.RankingCacheSize > 0 {
		e.rankings = cache.NewLRU[rankingKey, []Neighbor](cfg.RankingCacheSize, cfg.RankingCacheTTL)
	}
	return e, nil
}

// Swap installs a new corpus and returns the previous one (nil on first
// load). Requests in flight finish on the handle they started with.
func (e *Engine) Swap(h *CorpusHandle) *CorpusHandle {
	prev := e.corpus.Swap(h)
	if e.rankings != nil {
		e.rankings.Purge()
	}
	if h != nil {
		metrics.RecordCorpus(h.Version(), h.Len())
		e.logger.Info().
			Int64("version", h.Version()).
			Int("titles", h.Len()).
			Str("build_id", h.BuildID()).
			Msg("corpus installed")
	}
	return prev
}

// Corpus returns the current corpus, or nil before the first Swap.
func (e *Engine) Corpus() *CorpusHandle {
	return e.corpus.Load()
}

// CorpusStatus reports the served corpus version and size. loaded is false
// before the first Swap.
func (e *Engine) CorpusStatus() (version int64, titles int, loaded bool) {
	h := e.corpus.Load()
	if h == nil {
		return 0, 0, false
	}
	return h.Version(), h.Len(), true
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Stats returns request counters.
func (e *Engine) Stats() (requests, degraded int64) {
	return e.requestCount.Load(), e.degradedCount.Load()
}

// GetRecommendations returns one page of recommendations of kind starting
// at skip. A history store failure is logged and answered with an empty
// page; only an unknown kind or a missing corpus are errors.
func (e *Engine) GetRecommendations(ctx context.Context, kind models.Kind, skip int) (*models.RecommendationPage, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}
	corpus := e.corpus.Load()
	if corpus == nil {
		return nil, ErrCorpusNotLoaded
	}
	if skip < 0 {
		skip = 0
	}

	logger := logging.Ctx(ctx).With().
		Str("component", "recommend").
		Str("kind", kind.String()).
		Int("skip", skip).
		Logger()

	empty := &models.RecommendationPage{Items: []models.RecommendationItem{}, CorpusVersion: corpus.Version()}

	seeds, err := e.history.RecentByKind(ctx, kind, e.config.HistorySeedCount)
	if err != nil {
		e.degraded(&logger, err)
		return empty, nil
	}
	if len(seeds) == 0 {
		logger.Debug().Msg("no history for kind")
		return empty, nil
	}
	seen, err := e.history.AllSeenIDs(ctx)
	if err != nil {
		e.degraded(&logger, err)
		return empty, nil
	}

	candidates := GenerateCandidates(e.provider(corpus), seeds, seen, e.config.PoolTarget(), e.config.NeighborsPerSeed)

	page := Rank(candidates, RankParams{
		Kind:            kind,
		MinimumRating:   e.config.MinimumRating,
		PriorityRegions: e.config.PriorityRegions,
		TotalLimit:      e.config.TotalLimit,
		Skip:            skip,
		PageSize:        e.config.PageSize,
	})

	items := make([]models.RecommendationItem, len(page.Candidates))
	for i, c := range page.Candidates {
		score := c.Score
		items[i] = models.RecommendationItem{
			ID:        c.Title.ID,
			Kind:      c.Title.Kind,
			Name:      c.Title.Name,
			PosterURL: PosterURL(e.config.ImageBaseURL, c.Title.ID),
			Score:     &score,
		}
	}

	elapsed := time.Since(start)
	metrics.RecordRecommendation(kind.String(), len(candidates), elapsed)
	logger.Debug().
		Int("seeds", len(seeds)).
		Int("candidates", len(candidates)).
		Int("ranked", page.Ranked).
		Int("returned", len(items)).
		Dur("latency", elapsed).
		Msg("recommendation complete")

	return &models.RecommendationPage{
		Items:         items,
		HasMore:       page.HasMore,
		CorpusVersion: corpus.Version(),
	}, nil
}

func (e *Engine) degraded(logger *zerolog.Logger, err error) {
	e.degradedCount.Add(1)
	metrics.RecommendDegraded.Inc()
	logger.Warn().Err(err).Msg("history store unavailable, serving empty recommendations")
}

// PosterURL derives the poster image URL of a title.
func PosterURL(imageBase, id string) string {
	return imageBase + "/poster/medium/" + id + "/img"
}

func (e *Engine) provider(h *CorpusHandle) SimilarityProvider {
	if e.rankings == nil {
		return h
	}
	return &cachedProvider{corpus: h, cache: e.rankings}
}

// cachedProvider memoises rankings per corpus version and seed. A cached
// ranking serves any request whose depth it covers.
type cachedProvider struct {
	corpus *CorpusHandle
	cache  *cache.LRU[rankingKey, []Neighbor]
}

func (p *cachedProvider) Similar(id string, depth int) ([]Neighbor, bool) {
	key := rankingKey{version: p.corpus.Version(), seed: id}
	if cached, ok := p.cache.Get(key); ok {
		if depth <= 0 && len(cached) == p.corpus.Len() {
			metrics.RankingCacheHits.Inc()
			return cached, true
		}
		if depth > 0 && (len(cached) >= depth || len(cached) == p.corpus.Len()) {
			metrics.RankingCacheHits.Inc()
			if depth < len(cached) {
				return cached[:depth], true
			}
			return cached, true
		}
	}
	metrics.RankingCacheMisses.Inc()

	ranking, ok := p.corpus.Similar(id, depth)
	if !ok {
		return nil, false
	}
	p.cache.Add(key, ranking)
	return ranking, true
}
