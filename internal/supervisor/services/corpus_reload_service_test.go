// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
	"github.com/tomtom215/foryou/internal/recommend"
	"github.com/tomtom215/foryou/internal/recommend/storage"
	"github.com/tomtom215/foryou/internal/recommend/vector"
)

// mockInstaller records swapped handles.
type mockInstaller struct {
	current *recommend.CorpusHandle
	swaps   int
}

func (m *mockInstaller) CorpusStatus() (int64, int, bool) {
	if m.current == nil {
		return 0, 0, false
	}
	return m.current.Version(), m.current.Len(), true
}

func (m *mockInstaller) Swap(h *recommend.CorpusHandle) *recommend.CorpusHandle {
	prev := m.current
	m.current = h
	m.swaps++
	return prev
}

func publishSet(t *testing.T, store *storage.Store, docs ...string) int64 {
	t.Helper()
	model, vecs, err := vector.NewVectorizer().FitTransform(context.Background(), docs)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	titles := make([]models.Title, len(docs))
	for i := range docs {
		titles[i] = models.Title{
			ID:            fmt.Sprintf("tt%07d", i+1),
			Kind:          models.KindMovie,
			Name:          docs[i],
			PrimaryRegion: "Other",
			VoteCount:     1000,
			Vector:        vecs[i],
		}
	}
	v, err := store.Publish(context.Background(), &storage.ArtifactSet{
		BuildID: "test",
		BuiltAt: time.Now().UTC(),
		Titles:  titles,
		Model:   model,
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return v
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestCorpusReloadService_Reload(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	engine := &mockInstaller{}
	svc := NewCorpusReloadService(store, engine, 0, zerolog.Nop())

	v1 := publishSet(t, store, "crime drama", "comedy romance")
	swapped, err := svc.Reload(ctx)
	if err != nil || !swapped {
		t.Fatalf("first Reload() = %v, %v; want true, nil", swapped, err)
	}
	if got, _, _ := engine.CorpusStatus(); got != v1 {
		t.Errorf("version = %d, want %d", got, v1)
	}

	unchanged := testutil.ToFloat64(metrics.CorpusReloads.WithLabelValues("unchanged"))
	swapped, err = svc.Reload(ctx)
	if err != nil || swapped {
		t.Fatalf("second Reload() = %v, %v; want false, nil", swapped, err)
	}
	if got := testutil.ToFloat64(metrics.CorpusReloads.WithLabelValues("unchanged")); got != unchanged+1 {
		t.Errorf("unchanged reloads = %v, want %v", got, unchanged+1)
	}

	v2 := publishSet(t, store, "crime drama", "comedy romance", "space opera")
	if swapped, err = svc.Reload(ctx); err != nil || !swapped {
		t.Fatalf("third Reload() = %v, %v; want true, nil", swapped, err)
	}
	version, titles, _ := engine.CorpusStatus()
	if version != v2 || titles != 3 {
		t.Errorf("status = v%d/%d titles, want v%d/3", version, titles, v2)
	}
	if engine.swaps != 2 {
		t.Errorf("swaps = %d, want 2", engine.swaps)
	}
}

func TestCorpusReloadService_ReloadWithoutArtifacts(t *testing.T) {
	engine := &mockInstaller{}
	svc := NewCorpusReloadService(newStore(t), engine, 0, zerolog.Nop())

	_, err := svc.Reload(context.Background())
	if !errors.Is(err, storage.ErrNoArtifacts) {
		t.Fatalf("Reload() error = %v, want ErrNoArtifacts", err)
	}
	if engine.swaps != 0 {
		t.Errorf("swaps = %d, want 0", engine.swaps)
	}
}

// brokenSource reports a newer version it cannot load.
type brokenSource struct{ version int64 }

func (b brokenSource) CurrentVersion() (int64, error) { return b.version, nil }

func (b brokenSource) LoadCurrent(context.Context) (*storage.ArtifactSet, error) {
	return nil, storage.ErrIncompleteArtifacts
}

func TestCorpusReloadService_FailedLoadKeepsCorpus(t *testing.T) {
	store := newStore(t)
	publishSet(t, store, "crime drama", "comedy romance")
	engine := &mockInstaller{}
	if _, err := NewCorpusReloadService(store, engine, 0, zerolog.Nop()).Reload(context.Background()); err != nil {
		t.Fatalf("initial Reload() error = %v", err)
	}
	served := engine.current

	failed := testutil.ToFloat64(metrics.CorpusReloads.WithLabelValues("failed"))
	svc := NewCorpusReloadService(brokenSource{version: served.Version() + 1}, engine, 0, zerolog.Nop())
	if _, err := svc.Reload(context.Background()); !errors.Is(err, storage.ErrIncompleteArtifacts) {
		t.Fatalf("Reload() error = %v, want ErrIncompleteArtifacts", err)
	}
	if engine.current != served {
		t.Error("failed reload replaced the served corpus")
	}
	if got := testutil.ToFloat64(metrics.CorpusReloads.WithLabelValues("failed")); got != failed+1 {
		t.Errorf("failed reloads = %v, want %v", got, failed+1)
	}
}

func TestCorpusReloadService_ServeOnTrigger(t *testing.T) {
	store := newStore(t)
	engine := &mockInstaller{}
	svc := NewCorpusReloadService(store, engine, 0, zerolog.Nop())
	svc.signals = nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	publishSet(t, store, "crime drama", "comedy romance")
	svc.Trigger()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, _, loaded := engine.CorpusStatus(); loaded {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("corpus not loaded after Trigger")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestCorpusReloadService_String(t *testing.T) {
	var _ suture.Service = (*CorpusReloadService)(nil)
	svc := NewCorpusReloadService(nil, nil, time.Minute, zerolog.Nop())
	if svc.String() != "corpus-reload" {
		t.Errorf("String() = %q", svc.String())
	}
}
