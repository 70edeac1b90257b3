// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package history

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/models"
)

func newBadgerStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenBadger(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore(t *testing.T) {
	runStoreSuite(t, newBadgerStore)
}

func TestBadgerStore_InMemory(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenBadger("", zerolog.Nop())
		if err != nil {
			t.Fatalf("OpenBadger(in-memory) error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ids := seq("tt", 5)
	for i, id := range ids {
		mustWrite(t)(s.RecordView(ctx, view(id, models.KindSeries, time.Duration(i)*time.Minute, models.SourceLocal)))
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.RecentByKind(ctx, models.KindSeries, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{ids[4], ids[3]}; !reflect.DeepEqual(got, want) {
		t.Errorf("after reopen RecentByKind() = %v, want %v", got, want)
	}
}

func TestBadgerStore_RunGC(t *testing.T) {
	s, err := OpenBadger("", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RunGC(0.5); err != nil {
		t.Errorf("RunGC(in-memory) = %v, want nil", err)
	}
	_ = s.Close()
	if err := s.RunGC(0.5); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("RunGC after Close = %v, want ErrStoreClosed", err)
	}
}

func TestInvertTSOrdersNewestFirst(t *testing.T) {
	times := []int64{-5, 0, 1, 1_700_000_000_000_000_000}
	for i := 1; i < len(times); i++ {
		if invertTS(times[i]) >= invertTS(times[i-1]) {
			t.Errorf("invertTS(%d) does not sort before invertTS(%d)", times[i], times[i-1])
		}
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, &config.HistoryConfig{Backend: "badger", Path: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(badger) error = %v", err)
	}
	if _, ok := s.(*BadgerStore); !ok {
		t.Errorf("Open(badger) = %T", s)
	}
	_ = s.Close()

	if _, err := Open(ctx, &config.HistoryConfig{Backend: "sqlite"}, zerolog.Nop()); err == nil {
		t.Error("Open accepted an unknown backend")
	}
}

func TestInstrument(t *testing.T) {
	s := Instrument(newBadgerStore(t))
	ctx := context.Background()
	mustWrite(t)(s.RecordView(ctx, view("tt0000001", models.KindMovie, 0, models.SourceLocal)))
	if written, err := s.InsertIfAbsent(ctx, view("tt0000001", models.KindMovie, 0, models.SourceTrakt)); err != nil || written {
		t.Errorf("InsertIfAbsent(existing) = %v, %v", written, err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

type gcFunc func(float64) error

func (f gcFunc) RunGC(r float64) error { return f(r) }

func TestCompactor_Serve(t *testing.T) {
	calls := make(chan float64, 4)
	c := NewCompactor(gcFunc(func(r float64) error {
		calls <- r
		return nil
	}), 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	select {
	case r := <-calls:
		if r != 0.5 {
			t.Errorf("discard ratio = %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("compactor never ran GC")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
