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
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/foryou/internal/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("trakt: circuit breaker open")

// WatchedFetcher fetches a user's watched list for one media type.
type WatchedFetcher interface {
	GetWatched(ctx context.Context, media string) ([]TraktWatched, error)
}

// CircuitBreakerClient wraps a WatchedFetcher with a circuit breaker so an
// unavailable Trakt API is not hammered on every sync.
//
// The breaker uses real time for its interval and timeout. Tests exercise
// the wrapped client directly or trip the breaker with enough failures.
type CircuitBreakerClient struct {
	client WatchedFetcher
	cb     *gobreaker.CircuitBreaker[[]TraktWatched]
	name   string
	logger zerolog.Logger
}

var _ WatchedFetcher = (*CircuitBreakerClient)(nil)

// BreakerSettings tunes the breaker. Zero values take the defaults: 3
// half-open requests, 1m interval, 2m open timeout, trip at a 60% failure
// rate over at least 10 requests.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func (s *BreakerSettings) withDefaults() BreakerSettings {
	out := *s
	if out.MaxRequests == 0 {
		out.MaxRequests = 3
	}
	if out.Interval == 0 {
		out.Interval = time.Minute
	}
	if out.Timeout == 0 {
		out.Timeout = 2 * time.Minute
	}
	if out.MinRequests == 0 {
		out.MinRequests = 10
	}
	if out.FailureRatio == 0 {
		out.FailureRatio = 0.6
	}
	return out
}

// NewCircuitBreakerClient wraps client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCircuitBreakerClient(client WatchedFetcher, settings BreakerSettings, logger zerolog.Logger) *CircuitBreakerClient {
	const cbName = "trakt-api"
	s := settings.withDefaults()
	log := logger.With().Str("component", "circuit-breaker").Str("breaker", cbName).Logger()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]TraktWatched](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				log.Warn().Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).Msg("Opening circuit")
			}
			return shouldTrip
		},

		// Cancellation is the caller's doing, not Trakt's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			log.Info().Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName, logger: log}
}

// GetWatched implements WatchedFetcher with circuit breaker protection.
func (c *CircuitBreakerClient) GetWatched(ctx context.Context, media string) ([]TraktWatched, error) {
	items, err := c.cb.Execute(func() ([]TraktWatched, error) {
		return c.client.GetWatched(ctx, media)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	return items, nil
}

// State returns the breaker state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
