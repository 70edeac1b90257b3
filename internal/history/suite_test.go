// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/foryou/internal/models"
)

// viewGetter is implemented by both backends.
type viewGetter interface {
	Get(ctx context.Context, id string) (models.View, bool, error)
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func view(id string, kind models.Kind, offset time.Duration, source models.ViewSource) models.View {
	return models.View{TitleID: id, Kind: kind, Timestamp: base.Add(offset), Source: source}
}

// runStoreSuite checks the Store contract against one backend. newStore
// must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("RecordViewIsIdempotentPerID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, 0, models.SourceLocal)))
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, time.Hour, models.SourceLocal)))

		if n, err := s.Count(ctx); err != nil || n != 1 {
			t.Fatalf("Count() = %d, %v; want 1", n, err)
		}
		got := mustGet(t, s, "tt0000001")
		if !got.Timestamp.Equal(base.Add(time.Hour)) {
			t.Errorf("timestamp = %v, want the later write", got.Timestamp)
		}
	})

	t.Run("OlderViewNeverReplacesNewer", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, time.Hour, models.SourceLocal)))
		written, err := s.RecordView(ctx, view("tt0000001", models.KindSeries, 0, models.SourceLocal))
		if err != nil || written {
			t.Fatalf("RecordView(older) = %v, %v; want no write", written, err)
		}
		got := mustGet(t, s, "tt0000001")
		if got.Kind != models.KindMovie || !got.Timestamp.Equal(base.Add(time.Hour)) {
			t.Errorf("row = %+v, want the newer movie view", got)
		}
	})

	t.Run("KindFollowsLatestWrite", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, 0, models.SourceLocal)))
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindSeries, time.Minute, models.SourceLocal)))

		movies, _ := s.RecentByKind(ctx, models.KindMovie, 10)
		series, _ := s.RecentByKind(ctx, models.KindSeries, 10)
		if len(movies) != 0 || !reflect.DeepEqual(series, []string{"tt0000001"}) {
			t.Errorf("movies = %v, series = %v", movies, series)
		}
	})

	t.Run("SubMillisecondOrdering", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, 500*time.Microsecond, models.SourceLocal)))

		written, err := s.RecordView(ctx, view("tt0000001", models.KindSeries, 200*time.Microsecond, models.SourceLocal))
		if err != nil || written {
			t.Fatalf("RecordView(older by 300µs) = %v, %v; want no write", written, err)
		}
		got := mustGet(t, s, "tt0000001")
		if !got.Timestamp.Equal(base.Add(500*time.Microsecond)) || got.Kind != models.KindMovie {
			t.Errorf("stored = %+v, want the 500µs movie view", got)
		}

		mustWrite(t)(s.RecordView(ctx, view("tt0000002", models.KindMovie, 900*time.Microsecond, models.SourceLocal)))
		recent, err := s.RecentByKind(ctx, models.KindMovie, 10)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"tt0000002", "tt0000001"}; !reflect.DeepEqual(recent, want) {
			t.Errorf("RecentByKind = %v, want %v", recent, want)
		}
	})

	t.Run("InsertIfAbsent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, time.Hour, models.SourceLocal)))

		written, err := s.InsertIfAbsent(ctx, view("tt0000001", models.KindMovie, 2*time.Hour, models.SourceTrakt))
		if err != nil || written {
			t.Fatalf("InsertIfAbsent(existing) = %v, %v; want no write", written, err)
		}
		if got := mustGet(t, s, "tt0000001"); !got.Timestamp.Equal(base.Add(time.Hour)) || got.Source != models.SourceLocal {
			t.Errorf("existing row changed: %+v", got)
		}

		mustWrite(t)(s.InsertIfAbsent(ctx, view("tt0000002", models.KindSeries, 0, models.SourceTrakt)))
		if got := mustGet(t, s, "tt0000002"); got.Source != models.SourceTrakt || got.Kind != models.KindSeries {
			t.Errorf("inserted row = %+v", got)
		}
	})

	t.Run("RecentByKindOrderAndLimit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i, id := range []string{"tt0000001", "tt0000002", "tt0000003", "tt0000004"} {
			mustWrite(t)(s.RecordView(ctx, view(id, models.KindMovie, time.Duration(i)*time.Minute, models.SourceLocal)))
		}
		mustWrite(t)(s.RecordView(ctx, view("tt0000009", models.KindSeries, time.Hour, models.SourceLocal)))

		got, err := s.RecentByKind(ctx, models.KindMovie, 3)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"tt0000004", "tt0000003", "tt0000002"}; !reflect.DeepEqual(got, want) {
			t.Errorf("RecentByKind() = %v, want %v", got, want)
		}
		if got, _ := s.RecentByKind(ctx, models.KindMovie, 0); len(got) != 0 {
			t.Errorf("limit 0 returned %v", got)
		}
		if _, err := s.RecentByKind(ctx, "episode", 3); !errors.Is(err, models.ErrUnknownKind) {
			t.Errorf("unknown kind error = %v", err)
		}
	})

	t.Run("AllSeenIDsSpansKinds", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if seen, err := s.AllSeenIDs(ctx); err != nil || len(seen) != 0 {
			t.Fatalf("empty store AllSeenIDs() = %v, %v", seen, err)
		}
		mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, 0, models.SourceLocal)))
		mustWrite(t)(s.InsertIfAbsent(ctx, view("tt0000002", models.KindSeries, 0, models.SourceTrakt)))

		seen, err := s.AllSeenIDs(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]struct{}{"tt0000001": {}, "tt0000002": {}}
		if !reflect.DeepEqual(seen, want) {
			t.Errorf("AllSeenIDs() = %v", seen)
		}
	})

	t.Run("RejectsInvalidViews", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		bad := []models.View{
			{Kind: models.KindMovie, Timestamp: base},
			{TitleID: "tt0000001", Kind: "episode", Timestamp: base},
			{TitleID: "tt0000001", Kind: models.KindMovie},
		}
		for _, v := range bad {
			if _, err := s.RecordView(ctx, v); err == nil {
				t.Errorf("RecordView(%+v) accepted an invalid view", v)
			}
		}
	})

	t.Run("ConcurrentWritesKeepLatest", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := s.RecordView(ctx, view("tt0000001", models.KindMovie, time.Duration(i)*time.Second, models.SourceLocal)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent RecordView() error = %v", err)
		}
		if got := mustGet(t, s, "tt0000001"); !got.Timestamp.Equal(base.Add(19 * time.Second)) {
			t.Errorf("timestamp = %v, want the latest of the concurrent writes", got.Timestamp)
		}
		if ids, _ := s.RecentByKind(ctx, models.KindMovie, 10); len(ids) != 1 {
			t.Errorf("index holds %d entries for one title", len(ids))
		}
	})

	t.Run("ClosedStore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() = %v", err)
		}
		if _, err := s.RecordView(ctx, view("tt0000001", models.KindMovie, 0, models.SourceLocal)); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("RecordView after Close = %v, want ErrStoreClosed", err)
		}
		if _, err := s.AllSeenIDs(ctx); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("AllSeenIDs after Close = %v, want ErrStoreClosed", err)
		}
	})
}

// mustWrite fails the test unless the store write it receives succeeded
// and changed the history: mustWrite(t)(s.RecordView(ctx, v)).
func mustWrite(t *testing.T) func(bool, error) {
	t.Helper()
	return func(written bool, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write error = %v", err)
		}
		if !written {
			t.Fatal("write reported no change")
		}
	}
}

func mustGet(t *testing.T, s Store, id string) models.View {
	t.Helper()
	g, ok := s.(viewGetter)
	if !ok {
		t.Fatalf("%T does not implement Get", s)
	}
	v, found, err := g.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	if !found {
		t.Fatalf("Get(%s) found nothing", id)
	}
	return v
}

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%07d", prefix, i)
	}
	return out
}
