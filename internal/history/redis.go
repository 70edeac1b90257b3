// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/models"
)

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps watch history in Redis:
//
//	<prefix>:view:<id>      hash {kind, ts, source}, ts in unix microseconds
//	<prefix>:kind:movie     sorted set of IDs scored by ts
//	<prefix>:kind:series    sorted set of IDs scored by ts
//	<prefix>:seen           set of all IDs
//
// Both writes are single Lua scripts, so each is atomic on the server.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	closed atomic.Bool
}

var _ Store = (*RedisStore)(nil)

// KEYS: view hash, movie zset, series zset, seen set.
// ARGV: kind, ts, source, id.
var upsertScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
  return 0
end
local target, other = KEYS[2], KEYS[3]
if ARGV[1] == 'series' then
  target, other = KEYS[3], KEYS[2]
end
redis.call('ZREM', other, ARGV[4])
redis.call('HSET', KEYS[1], 'kind', ARGV[1], 'ts', ARGV[2], 'source', ARGV[3])
redis.call('ZADD', target, ARGV[2], ARGV[4])
redis.call('SADD', KEYS[4], ARGV[4])
return 1
`)

var insertIfAbsentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local target = KEYS[2]
if ARGV[1] == 'series' then
  target = KEYS[3]
end
redis.call('HSET', KEYS[1], 'kind', ARGV[1], 'ts', ARGV[2], 'source', ARGV[3])
redis.call('ZADD', target, ARGV[2], ARGV[4])
redis.call('SADD', KEYS[4], ARGV[4])
return 1
`)

// OpenRedis connects to Redis and verifies the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenRedis(ctx context.Context, opts RedisOptions, logger zerolog.Logger) (*RedisStore, error) {
	if opts.Prefix == "" {
		opts.Prefix = "foryou:history"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
		logger: logger.With().Str("component", "history").Str("backend", "redis").Logger(),
	}, nil
}

func (s *RedisStore) viewKey(id string) string { return s.prefix + ":view:" + id }

func (s *RedisStore) kindKey(kind models.Kind) string { return s.prefix + ":kind:" + string(kind) }

func (s *RedisStore) seenKey() string { return s.prefix + ":seen" }

func (s *RedisStore) write(ctx context.Context, script *redis.Script, v models.View) (bool, error) {
	if s.closed.Load() {
		return false, ErrStoreClosed
	}
	if err := checkView(&v); err != nil {
		return false, err
	}
	keys := []string{
		s.viewKey(v.TitleID),
		s.kindKey(models.KindMovie),
		s.kindKey(models.KindSeries),
		s.seenKey(),
	}
	n, err := script.Run(ctx, s.client, keys,
		string(v.Kind), stamp(v.Timestamp), string(v.Source), v.TitleID).Int()
	if err != nil {
		return false, s.mapErr(err)
	}
	return n == 1, nil
}

func (s *RedisStore) mapErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrStoreClosed
	}
	return err
}

// RecordView implements Store.
func (s *RedisStore) RecordView(ctx context.Context, v models.View) (bool, error) {
	return s.write(ctx, upsertScript, v)
}

// InsertIfAbsent implements Store.
func (s *RedisStore) InsertIfAbsent(ctx context.Context, v models.View) (bool, error) {
	return s.write(ctx, insertIfAbsentScript, v)
}

// RecentByKind implements Store.
func (s *RedisStore) RecentByKind(ctx context.Context, kind models.Kind, limit int) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if !kind.Valid() {
		return nil, models.ErrUnknownKind
	}
	if limit <= 0 {
		return []string{}, nil
	}
	ids, err := s.client.ZRevRange(ctx, s.kindKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent %s views: %w", kind, s.mapErr(err))
	}
	return ids, nil
}

// AllSeenIDs implements Store.
func (s *RedisStore) AllSeenIDs(ctx context.Context) (map[string]struct{}, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	members, err := s.client.SMembers(ctx, s.seenKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list seen ids: %w", s.mapErr(err))
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m] = struct{}{}
	}
	return seen, nil
}

// Count implements Store.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}
	n, err := s.client.SCard(ctx, s.seenKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count views: %w", s.mapErr(err))
	}
	return int(n), nil
}

// Get returns the stored view for id, or false when there is none.
func (s *RedisStore) Get(ctx context.Context, id string) (models.View, bool, error) {
	if s.closed.Load() {
		return models.View{}, false, ErrStoreClosed
	}
	fields, err := s.client.HGetAll(ctx, s.viewKey(id)).Result()
	if err != nil {
		return models.View{}, false, s.mapErr(err)
	}
	if len(fields) == 0 {
		return models.View{}, false, nil
	}
	us, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return models.View{}, false, fmt.Errorf("decode view %s: %w", id, err)
	}
	return models.View{
		TitleID:   id,
		Kind:      models.Kind(fields["kind"]),
		Timestamp: fromStamp(us),
		Source:    models.ViewSource(fields["source"]),
	}, true, nil
}

// Close implements Store. It is safe to call more than once.
func (s *RedisStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}
