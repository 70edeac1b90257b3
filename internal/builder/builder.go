// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
	"github.com/tomtom215/foryou/internal/recommend/storage"
	"github.com/tomtom215/foryou/internal/recommend/vector"
)

var (
	// ErrEmptySource is returned by Sources when a required stream holds
	// no rows at all.
	ErrEmptySource = errors.New("required source is empty")

	// ErrNoQualifiedTitles is returned when filtering leaves nothing to fit.
	ErrNoQualifiedTitles = errors.New("no qualified titles")
)

// IMDb title types retained by the builder.
const (
	TitleTypeMovie  = "movie"
	TitleTypeSeries = "tvSeries"
)

// Credit categories the builder reads from the principals stream.
const (
	CategoryDirector = "director"
	CategoryActor    = "actor"
	CategoryActress  = "actress"
)

// Filters a Sources implementation may push down to its storage.
var (
	RetainedTitleTypes = []string{TitleTypeMovie, TitleTypeSeries}
	CreditCategories   = []string{CategoryDirector, CategoryActor, CategoryActress}
)

// Config holds the build thresholds.
type Config struct {
	MinimumVotesThreshold int
	YearFilterThreshold   int
	PriorityRegions       []string

	// MaxActors caps top-billed actors per title.
	MaxActors int

	// MaxDirectors caps directors per title in billing order. 0 keeps all.
	MaxDirectors int

	// RetainVersions is how many artifact sets Run keeps after publishing.
	RetainVersions int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinimumVotesThreshold: 500,
		YearFilterThreshold:   1980,
		PriorityRegions:       []string{"IN"},
		MaxActors:             3,
		RetainVersions:        3,
	}
}

// Stats summarises one build.
type Stats struct {
	BuildID string `json:"build_id"`

	BasicsRead     int `json:"basics_read"`
	AkasRead       int `json:"akas_read"`
	RatingsRead    int `json:"ratings_read"`
	PrincipalsRead int `json:"principals_read"`
	NamesRead      int `json:"names_read"`

	Retained         int `json:"retained"`
	DroppedLowVotes  int `json:"dropped_low_votes"`
	DroppedNoContent int `json:"dropped_no_content"`
	Qualified        int `json:"qualified"`
	Vocabulary       int `json:"vocabulary"`

	Duration time.Duration `json:"duration"`
}

// Publisher receives finished artifact sets. *storage.Store implements it.
type Publisher interface {
	Publish(ctx context.Context, set *storage.ArtifactSet) (int64, error)
	Prune(ctx context.Context, keep int) ([]int64, error)
}

// Builder turns catalog record streams into an artifact set. A Builder is
// not meant for concurrent Build calls.
type Builder struct {
	cfg     Config
	sources Sources
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a builder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, sources Sources, logger zerolog.Logger) *Builder {
	if cfg.MaxActors < 0 {
		cfg.MaxActors = 0
	}
	if cfg.MaxDirectors < 0 {
		cfg.MaxDirectors = 0
	}
	return &Builder{
		cfg:     cfg,
		sources: sources,
		logger:  logger.With().Str("component", "builder").Logger(),
		now:     time.Now,
	}
}

type credit struct {
	ordering int
	personID string
}

// draft is a retained title while its enrichment is collected.
type draft struct {
	title     models.Title
	directors []credit
	actors    []credit
}

// Build runs the pipeline and returns an unpublished artifact set. Any
// error aborts the whole build.
func (b *Builder) Build(ctx context.Context) (*storage.ArtifactSet, Stats, error) {
	start := b.now()
	stats := Stats{BuildID: uuid.New().String()}
	logger := b.logger.With().Str("build_id", stats.BuildID).Logger()

	// Step 1: kind and year filter.
	logger.Info().Int("year_threshold", b.cfg.YearFilterThreshold).Msg("reading title basics")
	drafts := make(map[string]*draft)
	err := b.sources.Basics(ctx, func(r BasicsRecord) error {
		stats.BasicsRead++
		kind, ok := retainedKind(r.TitleType)
		if !ok || r.StartYear < b.cfg.YearFilterThreshold {
			return nil
		}
		drafts[r.ID] = &draft{title: models.Title{
			ID:     r.ID,
			Kind:   kind,
			Name:   r.PrimaryTitle,
			Genres: r.Genres,
			Year:   r.StartYear,
		}}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("read basics: %w", err)
	}
	stats.Retained = len(drafts)

	// Steps 2-4 inputs: the streams run concurrently. Only the principals
	// reader mutates drafts; the others just look them up.
	priority := make(map[string]struct{}, len(b.cfg.PriorityRegions))
	for _, r := range b.cfg.PriorityRegions {
		priority[r] = struct{}{}
	}
	regions := make(map[string]map[string]struct{})
	ratings := make(map[string]RatingRecord)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := b.sources.Akas(gctx, func(r AkaRecord) error {
			stats.AkasRead++
			if _, ok := drafts[r.TitleID]; !ok {
				return nil
			}
			if _, ok := priority[r.Region]; !ok {
				return nil
			}
			set := regions[r.TitleID]
			if set == nil {
				set = make(map[string]struct{}, 1)
				regions[r.TitleID] = set
			}
			set[r.Region] = struct{}{}
			return nil
		})
		if err != nil {
			return fmt.Errorf("read akas: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := b.sources.Ratings(gctx, func(r RatingRecord) error {
			stats.RatingsRead++
			if _, ok := drafts[r.TitleID]; ok {
				ratings[r.TitleID] = r
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("read ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := b.sources.Principals(gctx, func(r PrincipalRecord) error {
			stats.PrincipalsRead++
			d, ok := drafts[r.TitleID]
			if !ok {
				return nil
			}
			c := credit{ordering: r.Ordering, personID: r.PersonID}
			switch r.Category {
			case CategoryDirector:
				d.directors = append(d.directors, c)
			case CategoryActor, CategoryActress:
				d.actors = append(d.actors, c)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("read principals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	// Step 3: top billing, then name resolution.
	needed := make(map[string]struct{})
	for _, d := range drafts {
		sortCredits(d.directors)
		sortCredits(d.actors)
		if len(d.actors) > b.cfg.MaxActors {
			d.actors = d.actors[:b.cfg.MaxActors]
		}
		if b.cfg.MaxDirectors > 0 && len(d.directors) > b.cfg.MaxDirectors {
			d.directors = d.directors[:b.cfg.MaxDirectors]
		}
		for _, c := range d.directors {
			needed[c.personID] = struct{}{}
		}
		for _, c := range d.actors {
			needed[c.personID] = struct{}{}
		}
	}
	names := make(map[string]string, len(needed))
	err = b.sources.Names(ctx, func(r NameRecord) error {
		stats.NamesRead++
		if _, ok := needed[r.PersonID]; ok {
			names[r.PersonID] = CollapseName(r.Name)
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("read names: %w", err)
	}

	// Steps 2 and 4: region, rating join, vote threshold.
	titles := make([]models.Title, 0, len(drafts))
	for id, d := range drafts {
		t := d.title
		t.PrimaryRegion = ResolveRegion(regions[id], b.cfg.PriorityRegions)
		t.Directors = resolve(d.directors, names)
		t.Actors = resolve(d.actors, names)
		if r, ok := ratings[id]; ok {
			t.AverageRating = r.AverageRating
			t.VoteCount = r.NumVotes
		}
		if t.VoteCount < b.cfg.MinimumVotesThreshold {
			stats.DroppedLowVotes++
			continue
		}
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool { return titles[i].ID < titles[j].ID })

	// Steps 5-6: documents and model.
	docs := make([]string, len(titles))
	for i := range titles {
		docs[i] = FeatureDocument(&titles[i])
	}
	if len(docs) == 0 {
		return nil, stats, ErrNoQualifiedTitles
	}
	logger.Info().Int("titles", len(docs)).Msg("fitting tf-idf model")
	model, vectors, err := vector.NewVectorizer().FitTransform(ctx, docs)
	if err != nil {
		return nil, stats, fmt.Errorf("fit model: %w", err)
	}

	qualified := titles[:0]
	for i := range titles {
		if vectors[i].IsZero() {
			stats.DroppedNoContent++
			continue
		}
		titles[i].Vector = vectors[i]
		qualified = append(qualified, titles[i])
	}
	if len(qualified) == 0 {
		return nil, stats, ErrNoQualifiedTitles
	}

	stats.Qualified = len(qualified)
	stats.Vocabulary = model.VocabularySize()
	stats.Duration = b.now().Sub(start)

	logger.Info().
		Int("basics", stats.BasicsRead).
		Int("retained", stats.Retained).
		Int("qualified", stats.Qualified).
		Int("dropped_low_votes", stats.DroppedLowVotes).
		Int("vocabulary", stats.Vocabulary).
		Dur("duration", stats.Duration).
		Msg("corpus built")

	return &storage.ArtifactSet{
		BuildID: stats.BuildID,
		BuiltAt: start,
		Titles:  qualified,
		Model:   model,
	}, stats, nil
}

// Run builds, publishes and prunes. Nothing is published when the build
// fails, so the previous set stays current.
func (b *Builder) Run(ctx context.Context, pub Publisher) (int64, Stats, error) {
	set, stats, err := b.Build(ctx)
	if err != nil {
		return 0, stats, err
	}
	version, err := pub.Publish(ctx, set)
	if err != nil {
		return 0, stats, fmt.Errorf("publish artifacts: %w", err)
	}
	metrics.BuildDuration.Observe(stats.Duration.Seconds())
	b.logger.Info().Int64("version", version).Str("build_id", stats.BuildID).Msg("artifact set published")

	if b.cfg.RetainVersions > 0 {
		removed, err := pub.Prune(ctx, b.cfg.RetainVersions)
		if err != nil {
			b.logger.Warn().Err(err).Msg("failed to prune old artifact sets")
		} else if len(removed) > 0 {
			b.logger.Info().Interface("versions", removed).Msg("pruned old artifact sets")
		}
	}
	return version, stats, nil
}

func retainedKind(titleType string) (models.Kind, bool) {
	switch titleType {
	case TitleTypeMovie:
		return models.KindMovie, true
	case TitleTypeSeries:
		return models.KindSeries, true
	default:
		return "", false
	}
}

func sortCredits(cs []credit) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].ordering < cs[j].ordering })
}

func resolve(cs []credit, names map[string]string) []string {
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if n := names[c.personID]; n != "" {
			out = append(out, n)
		}
	}
	return out
}
