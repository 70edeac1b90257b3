// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/models"
)

// mockHistory implements HistoryReader for tests.
type mockHistory struct {
	recent map[models.Kind][]string
	seen   map[string]struct{}
	err    error
}

func (m *mockHistory) RecentByKind(_ context.Context, kind models.Kind, limit int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := m.recent[kind]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *mockHistory) AllSeenIDs(_ context.Context) (map[string]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.seen, nil
}

func newTestEngine(t *testing.T, cfg *Config, h HistoryReader) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, h, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	if _, err := NewEngine(&Config{PageSize: 0, HistorySeedCount: 5}, &mockHistory{}, zerolog.Nop()); err == nil {
		t.Error("NewEngine() accepted page_size 0")
	}
	if _, err := NewEngine(nil, nil, zerolog.Nop()); err == nil {
		t.Error("NewEngine() accepted a nil history reader")
	}
}

func TestEngine_GetRecommendations(t *testing.T) {
	ctx := context.Background()
	history := &mockHistory{
		recent: map[models.Kind][]string{models.KindMovie: {"tt0000001"}},
		seen:   map[string]struct{}{"tt0000001": {}, "tt0000006": {}},
	}
	e := newTestEngine(t, nil, history)

	if _, err := e.GetRecommendations(ctx, models.KindMovie, 0); !errors.Is(err, ErrCorpusNotLoaded) {
		t.Fatalf("before Swap error = %v, want ErrCorpusNotLoaded", err)
	}

	if prev := e.Swap(crimeCorpus(t)); prev != nil {
		t.Error("first Swap returned a previous corpus")
	}

	page, err := e.GetRecommendations(ctx, models.KindMovie, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if page.CorpusVersion != 7 {
		t.Errorf("CorpusVersion = %d, want 7", page.CorpusVersion)
	}

	got := make([]string, len(page.Items))
	for i, it := range page.Items {
		got[i] = it.ID
		if it.Kind != models.KindMovie {
			t.Errorf("item %s kind = %s", it.ID, it.Kind)
		}
		if it.ID == "tt0000001" || it.ID == "tt0000006" {
			t.Errorf("seen title %s recommended", it.ID)
		}
		if want := "https://images.metahub.space/poster/medium/" + it.ID + "/img"; it.PosterURL != want {
			t.Errorf("PosterURL = %s, want %s", it.PosterURL, want)
		}
		if it.Score == nil {
			t.Errorf("item %s has no score", it.ID)
		}
	}
	// IN bucket first (rated 7.5 and the unrated heist), then Other
	// (8.8 and 6.0). GB unrated and the 3.0 thriller are filtered out.
	if len(got) != 4 || got[0] != "tt0000002" || got[2] != "tt0000003" {
		t.Errorf("items = %v", got)
	}
	for i := 0; i < 2; i++ {
		if got[i] != "tt0000002" && got[i] != "tt0000004" {
			t.Errorf("position %d = %s, want an IN title", i, got[i])
		}
	}
}

func TestEngine_EmptyHistory(t *testing.T) {
	e := newTestEngine(t, nil, &mockHistory{})
	e.Swap(crimeCorpus(t))

	page, err := e.GetRecommendations(context.Background(), models.KindSeries, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("page = %+v, want empty without more", page)
	}
	if page.Items == nil {
		t.Error("Items is nil; the JSON surface needs []")
	}
}

func TestEngine_HistoryFailureDegrades(t *testing.T) {
	e := newTestEngine(t, nil, &mockHistory{err: errors.New("store closed")})
	e.Swap(crimeCorpus(t))

	page, err := e.GetRecommendations(context.Background(), models.KindMovie, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v, want degraded empty page", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("page = %+v, want empty", page)
	}
	if _, degraded := e.Stats(); degraded != 1 {
		t.Errorf("degraded = %d, want 1", degraded)
	}
}

func TestEngine_UnknownKind(t *testing.T) {
	e := newTestEngine(t, nil, &mockHistory{})
	e.Swap(crimeCorpus(t))
	if _, err := e.GetRecommendations(context.Background(), "episode", 0); !errors.Is(err, models.ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestEngine_UnknownSeedsSkipped(t *testing.T) {
	history := &mockHistory{
		recent: map[models.Kind][]string{models.KindMovie: {"tt7777777", "tt0000004"}},
		seen:   map[string]struct{}{"tt7777777": {}, "tt0000004": {}},
	}
	e := newTestEngine(t, nil, history)
	e.Swap(crimeCorpus(t))

	page, err := e.GetRecommendations(context.Background(), models.KindMovie, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(page.Items) == 0 {
		t.Error("known seed after an unknown one produced nothing")
	}
}

func TestEngine_SwapAndCache(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 1
	history := &mockHistory{
		recent: map[models.Kind][]string{models.KindMovie: {"tt0000001"}},
		seen:   map[string]struct{}{"tt0000001": {}},
	}
	e := newTestEngine(t, cfg, history)
	e.Swap(crimeCorpus(t))

	first, err := e.GetRecommendations(context.Background(), models.KindMovie, 0)
	if err != nil {
		t.Fatal(err)
	}
	again, err := e.GetRecommendations(context.Background(), models.KindMovie, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Items[0].ID != again.Items[0].ID {
		t.Errorf("cached ranking changed result: %s vs %s", first.Items[0].ID, again.Items[0].ID)
	}
	if !first.HasMore {
		t.Error("HasMore = false with page size 1")
	}
	if hits, _ := e.rankings.Stats(); hits == 0 {
		t.Error("second request did not hit the ranking cache")
	}

	next := newTestCorpus(t, []fixtureTitle{
		{"tt0000001", models.KindMovie, "IN", 8.0, "crime drama"},
		{"tt0000100", models.KindMovie, "IN", 8.0, "crime drama mumbai"},
	})
	next.version = 8
	if prev := e.Swap(next); prev == nil || prev.Version() != 7 {
		t.Fatalf("Swap returned %v, want version 7", prev)
	}
	page, err := e.GetRecommendations(context.Background(), models.KindMovie, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.CorpusVersion != 8 || len(page.Items) != 1 || page.Items[0].ID != "tt0000100" {
		t.Errorf("after swap page = %+v", page)
	}
}

func TestEngine_ConcurrentRequests(t *testing.T) {
	history := &mockHistory{
		recent: map[models.Kind][]string{models.KindMovie: {"tt0000001", "tt0000002"}},
		seen:   map[string]struct{}{"tt0000001": {}, "tt0000002": {}},
	}
	e := newTestEngine(t, nil, history)
	e.Swap(crimeCorpus(t))

	replacement := crimeCorpus(t)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%8 == 0 {
				e.Swap(replacement)
			}
			if _, err := e.GetRecommendations(context.Background(), models.KindMovie, 0); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent request error = %v", err)
	}
}

func TestPosterURL(t *testing.T) {
	if got := PosterURL("https://img.example", "tt0111161"); got != "https://img.example/poster/medium/tt0111161/img" {
		t.Errorf("PosterURL() = %s", got)
	}
}

func TestConfig_PoolTargetAndClone(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.PoolTarget(); got != 100 {
		t.Errorf("PoolTarget() = %d, want 100", got)
	}
	c := cfg.Clone()
	c.PriorityRegions[0] = "GB"
	if cfg.PriorityRegions[0] != "IN" {
		t.Error("Clone shares PriorityRegions")
	}
	if cfg.NeighborsPerSeed != 0 {
		t.Errorf("NeighborsPerSeed = %d, want 0 (uncapped)", cfg.NeighborsPerSeed)
	}
}

// manyMovies returns n rated IN movies sharing vocabulary, so every title
// has a non-zero similarity to every other.
func manyMovies(t *testing.T, n int) *CorpusHandle {
	t.Helper()
	fixtures := make([]fixtureTitle, n)
	for i := range fixtures {
		fixtures[i] = fixtureTitle{
			id:     fmt.Sprintf("tt%07d", i+1),
			kind:   models.KindMovie,
			region: "IN",
			rating: 7.0,
			doc:    fmt.Sprintf("crime drama gangster city%d", i),
		}
	}
	return newTestCorpus(t, fixtures)
}

func TestEngine_SingleSeedFillsPool(t *testing.T) {
	ctx := context.Background()
	history := &mockHistory{
		recent: map[models.Kind][]string{models.KindMovie: {"tt0000001"}},
		seen:   map[string]struct{}{"tt0000001": {}},
	}

	e := newTestEngine(t, nil, history)
	e.Swap(manyMovies(t, 80))
	page, err := e.GetRecommendations(ctx, models.KindMovie, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 50 || page.HasMore {
		t.Errorf("default config: items = %d, hasMore = %v; want 50, false", len(page.Items), page.HasMore)
	}

	cfg := DefaultConfig()
	cfg.PageSize = 20
	e = newTestEngine(t, cfg, history)
	e.Swap(manyMovies(t, 80))
	page, err = e.GetRecommendations(ctx, models.KindMovie, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 20 || !page.HasMore {
		t.Errorf("skip=20: items = %d, hasMore = %v; want 20, true", len(page.Items), page.HasMore)
	}

	cfg = DefaultConfig()
	cfg.NeighborsPerSeed = 20
	e = newTestEngine(t, cfg, history)
	e.Swap(manyMovies(t, 80))
	page, err = e.GetRecommendations(ctx, models.KindMovie, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 20 {
		t.Errorf("per-seed cap 20: items = %d, want 20", len(page.Items))
	}
}
