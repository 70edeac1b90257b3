// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
)

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("history store closed")

// Store is the watch-history store. There is at most one row per title ID.
//
// RecordView upserts: the row keeps the latest timestamp and the kind of
// the write that carried it, so an older view never replaces a newer one.
// InsertIfAbsent writes only when the ID is unknown; bulk imports use it so
// they never clobber precise local timestamps. Both report whether a write
// happened.
//
// Implementations are safe for concurrent use.
type Store interface {
	RecordView(ctx context.Context, v models.View) (bool, error)
	InsertIfAbsent(ctx context.Context, v models.View) (bool, error)

	// RecentByKind returns up to limit title IDs of kind, most recent first.
	RecentByKind(ctx context.Context, kind models.Kind, limit int) ([]string, error)

	// AllSeenIDs returns every recorded title ID, of any kind.
	AllSeenIDs(ctx context.Context) (map[string]struct{}, error)

	Count(ctx context.Context) (int, error)
	Close() error
}

// Open creates the store selected by cfg.Backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg *config.HistoryConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "badger":
		return OpenBadger(cfg.Path, logger)
	case "redis":
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Timestamps are stored as unix microseconds by every backend. The value
// stays exact as a float64 Redis score, and both backends compare the same
// integers when deciding whether a view is newer.
func stamp(t time.Time) int64 { return t.UnixMicro() }

func fromStamp(ts int64) time.Time { return time.UnixMicro(ts).UTC() }

func checkView(v *models.View) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid view: %w", err)
	}
	return nil
}

// instrumented wraps a Store and counts writes.
type instrumented struct {
	Store
}

// Instrument wraps s so every write is counted in the history metrics.
func Instrument(s Store) Store {
	return instrumented{Store: s}
}

func (i instrumented) RecordView(ctx context.Context, v models.View) (bool, error) {
	written, err := i.Store.RecordView(ctx, v)
	metrics.RecordHistoryWrite("record_view", written, err)
	return written, err
}

func (i instrumented) InsertIfAbsent(ctx context.Context, v models.View) (bool, error) {
	written, err := i.Store.InsertIfAbsent(ctx, v)
	metrics.RecordHistoryWrite("insert_if_absent", written, err)
	return written, err
}
