// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/models"
)

// Key layout:
//
//	v/<id>                        -> record JSON
//	k/<kind>/<inverted ts>/<id>   -> empty, recency index
//
// The inverted timestamp makes a forward prefix scan return the newest
// views first.
const (
	recordPrefix = "v/"
	indexPrefix  = "k/"

	maxConflictRetries = 32
)

type record struct {
	Kind   models.Kind       `json:"kind"`
	TS     int64             `json:"ts"` // unix microseconds
	Source models.ViewSource `json:"source,omitempty"`
}

// BadgerStore keeps watch history in an embedded BadgerDB. Writes are
// transactions; concurrent writes to the same ID conflict and are retried.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
	closed atomic.Bool
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens (or creates) the store at path. An empty path opens an
// in-memory store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = true
	opts.NumCompactors = 2
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "history").Str("backend", "badger").Logger(),
	}, nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

func kindPrefix(kind models.Kind) []byte {
	return []byte(indexPrefix + string(kind) + "/")
}

func indexKey(kind models.Kind, ts int64, id string) []byte {
	p := kindPrefix(kind)
	key := make([]byte, 0, len(p)+9+len(id))
	key = append(key, p...)
	key = binary.BigEndian.AppendUint64(key, invertTS(ts))
	key = append(key, '/')
	return append(key, id...)
}

// invertTS maps ts to a uint64 whose big-endian bytes sort newest first.
func invertTS(ts int64) uint64 {
	return ^(uint64(ts) ^ (1 << 63))
}

// idFromIndexKey extracts the title ID from an index key of kind.
func idFromIndexKey(key []byte, kind models.Kind) string {
	rest := key[len(kindPrefix(kind)):]
	if len(rest) < 9 {
		return ""
	}
	return string(rest[9:])
}

func getRecord(txn *badger.Txn, id string) (*record, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	}); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &r, nil
}

func putRecord(txn *badger.Txn, id string, prev *record, next record) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if prev != nil {
		if err := txn.Delete(indexKey(prev.Kind, prev.TS, id)); err != nil {
			return fmt.Errorf("delete index: %w", err)
		}
	}
	if err := txn.Set(recordKey(id), data); err != nil {
		return fmt.Errorf("set record: %w", err)
	}
	if err := txn.Set(indexKey(next.Kind, next.TS, id), nil); err != nil {
		return fmt.Errorf("set index: %w", err)
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) (bool, error)) (bool, error) {
	if s.closed.Load() {
		return false, ErrStoreClosed
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var written bool
		err := s.db.Update(func(txn *badger.Txn) error {
			var err error
			written, err = fn(txn)
			return err
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			s.logger.Debug().Int("attempt", attempt+1).Msg("write conflict, retrying")
			time.Sleep(time.Duration(attempt+1) * time.Millisecond)
			continue
		}
		if errors.Is(err, badger.ErrDBClosed) {
			return false, ErrStoreClosed
		}
		if err != nil {
			return false, err
		}
		return written, nil
	}
}

// RecordView implements Store.
func (s *BadgerStore) RecordView(ctx context.Context, v models.View) (bool, error) {
	if err := checkView(&v); err != nil {
		return false, err
	}
	next := record{Kind: v.Kind, TS: stamp(v.Timestamp), Source: v.Source}
	return s.update(ctx, func(txn *badger.Txn) (bool, error) {
		prev, err := getRecord(txn, v.TitleID)
		if err != nil {
			return false, err
		}
		if prev != nil && prev.TS > next.TS {
			return false, nil
		}
		return true, putRecord(txn, v.TitleID, prev, next)
	})
}

// InsertIfAbsent implements Store.
func (s *BadgerStore) InsertIfAbsent(ctx context.Context, v models.View) (bool, error) {
	if err := checkView(&v); err != nil {
		return false, err
	}
	next := record{Kind: v.Kind, TS: stamp(v.Timestamp), Source: v.Source}
	return s.update(ctx, func(txn *badger.Txn) (bool, error) {
		prev, err := getRecord(txn, v.TitleID)
		if err != nil || prev != nil {
			return false, err
		}
		return true, putRecord(txn, v.TitleID, nil, next)
	})
}

func (s *BadgerStore) view(fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	err := s.db.View(fn)
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrStoreClosed
	}
	return err
}

// RecentByKind implements Store.
func (s *BadgerStore) RecentByKind(ctx context.Context, kind models.Kind, limit int) ([]string, error) {
	if !kind.Valid() {
		return nil, models.ErrUnknownKind
	}
	if limit <= 0 {
		return []string{}, nil
	}
	ids := make([]string, 0, limit)
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := kindPrefix(kind)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if id := idFromIndexKey(it.Item().Key(), kind); id != "" {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent %s views: %w", kind, err)
	}
	return ids, nil
}

// AllSeenIDs implements Store.
func (s *BadgerStore) AllSeenIDs(ctx context.Context) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	err := s.scanRecords(ctx, func(key []byte) {
		seen[string(bytes.TrimPrefix(key, []byte(recordPrefix)))] = struct{}{}
	})
	if err != nil {
		return nil, fmt.Errorf("list seen ids: %w", err)
	}
	return seen, nil
}

// Count implements Store.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	n := 0
	if err := s.scanRecords(ctx, func([]byte) { n++ }); err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

func (s *BadgerStore) scanRecords(ctx context.Context, fn func(key []byte)) error {
	return s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(recordPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(it.Item().Key())
		}
		return nil
	})
}

// Get returns the stored view for id, or false when there is none.
func (s *BadgerStore) Get(ctx context.Context, id string) (models.View, bool, error) {
	var r *record
	err := s.view(func(txn *badger.Txn) error {
		var err error
		r, err = getRecord(txn, id)
		return err
	})
	if err != nil || r == nil {
		return models.View{}, false, err
	}
	return models.View{
		TitleID:   id,
		Kind:      r.Kind,
		Timestamp: fromStamp(r.TS),
		Source:    r.Source,
	}, true, nil
}

// RunGC reclaims value log space. badger.ErrNoRewrite means there was
// nothing to reclaim and is not an error.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Close implements Store. It is safe to call more than once.
func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
