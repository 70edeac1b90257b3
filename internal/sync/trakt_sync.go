// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
)

// ViewRecorder accepts views for the history store. events.Recorder
// implements it.
type ViewRecorder interface {
	Record(ctx context.Context, v models.View) error
}

// Result summarises one sync run.
type Result struct {
	Movies   int
	Shows    int
	Recorded int
	Duration time.Duration
}

// TraktSync periodically imports the user's Trakt watched lists into the
// watch history. Views carry source trakt, so the consumer applies them
// with insert-if-absent semantics and never clobbers local views.
type TraktSync struct {
	fetcher  WatchedFetcher
	recorder ViewRecorder
	interval time.Duration
	ready    <-chan struct{}
	now      func() time.Time
	logger   zerolog.Logger
}

// NewTraktSync creates the sync loop. ready, when non-nil, must be closed
// before the first run; pass the consumer's Running channel so no view is
// published before anyone subscribes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTraktSync(fetcher WatchedFetcher, recorder ViewRecorder, interval time.Duration, ready <-chan struct{}, logger zerolog.Logger) *TraktSync {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TraktSync{
		fetcher:  fetcher,
		recorder: recorder,
		interval: interval,
		ready:    ready,
		now:      time.Now,
		logger:   logger.With().Str("component", "trakt-sync").Logger(),
	}
}

// Serve runs a sync immediately and then every interval until ctx is done.
// Failed runs are logged and retried on the next tick.
func (s *TraktSync) Serve(ctx context.Context) error {
	if s.ready != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ready:
		}
	}

	s.logger.Info().Dur("interval", s.interval).Msg("Trakt sync started")
	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Trakt sync stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *TraktSync) runLogged(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error().Err(err).Int("recorded", res.Recorded).Msg("Trakt sync cycle failed")
		return
	}
	s.logger.Info().Int("movies", res.Movies).Int("shows", res.Shows).
		Int("recorded", res.Recorded).Dur("duration", res.Duration).Msg("Trakt sync cycle complete")
}

// RunOnce fetches movies and shows concurrently and records every watched
// title. A failure on one list does not discard the other; the returned
// error joins both failures.
func (s *TraktSync) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	now := s.now().UTC()

	var movies, shows []models.View
	var movieErr, showErr error

	var g errgroup.Group
	g.Go(func() error {
		items, err := s.fetcher.GetWatched(ctx, MediaMovies)
		if err != nil {
			movieErr = err
			return nil
		}
		movies = WatchedViews(MediaMovies, items, now)
		return nil
	})
	g.Go(func() error {
		items, err := s.fetcher.GetWatched(ctx, MediaShows)
		if err != nil {
			showErr = err
			return nil
		}
		shows = WatchedViews(MediaShows, items, now)
		return nil
	})
	_ = g.Wait()

	res := Result{Movies: len(movies), Shows: len(shows)}
	metrics.SyncItems.WithLabelValues(string(models.KindMovie)).Add(float64(len(movies)))
	metrics.SyncItems.WithLabelValues(string(models.KindSeries)).Add(float64(len(shows)))

	var recordErr error
	for _, v := range append(movies, shows...) {
		if err := s.recorder.Record(ctx, v); err != nil {
			recordErr = fmt.Errorf("record %s: %w", v.TitleID, err)
			break
		}
		res.Recorded++
	}

	res.Duration = time.Since(start)
	err := errors.Join(movieErr, showErr, recordErr)
	metrics.RecordSync(res.Duration, syncResult(err))
	return res, err
}

func syncResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}

// String implements fmt.Stringer for suture.
func (s *TraktSync) String() string {
	return "trakt-sync"
}
