// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector is a store that can reclaim disk space.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// Compactor periodically runs value-log GC on a BadgerStore. It implements
// suture.Service.
type Compactor struct {
	gc           GarbageCollector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewCompactor creates a compactor. interval <= 0 defaults to 30 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCompactor(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *Compactor {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Compactor{
		gc:           gc,
		interval:     interval,
		discardRatio: 0.5,
		logger:       logger.With().Str("component", "history-compactor").Logger(),
	}
}

// Serve runs until ctx is cancelled. GC errors are logged, not returned,
// so a failing pass does not restart the service.
func (c *Compactor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := c.gc.RunGC(c.discardRatio); err != nil {
				c.logger.Error().Err(err).Msg("history GC failed")
				continue
			}
			c.logger.Debug().Dur("duration", time.Since(start)).Msg("history GC complete")
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (c *Compactor) String() string {
	return "history-compactor"
}
