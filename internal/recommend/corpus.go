// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/foryou/internal/models"
	"github.com/tomtom215/foryou/internal/recommend/storage"
	"github.com/tomtom215/foryou/internal/recommend/vector"
)

var (
	// ErrEmptyCorpus is returned when building a handle without titles.
	ErrEmptyCorpus = errors.New("corpus has no titles")

	// ErrCorpusNotLoaded is returned by the engine before the first Swap.
	ErrCorpusNotLoaded = errors.New("corpus not loaded")
)

// Neighbor is one entry of a similarity ranking.
type Neighbor struct {
	Title *models.Title
	Score float64
}

// CorpusHandle is an immutable, loaded corpus. It is safe for concurrent
// use and never mutated after construction.
type CorpusHandle struct {
	version int64
	buildID string
	builtAt time.Time

	// titles are sorted by ID, so document order is ID order and index
	// ties resolve by ID.
	titles []models.Title
	byID   map[string]int
	model  *vector.Model
	index  *vector.Index
}

// NewCorpusHandle builds a handle over titles, each carrying its vector.
// The slice is copied. Duplicate IDs and titles without a vector are
// rejected.
func NewCorpusHandle(version int64, titles []models.Title, model *vector.Model) (*CorpusHandle, error) {
	if len(titles) == 0 {
		return nil, ErrEmptyCorpus
	}
	if model == nil {
		return nil, errors.New("corpus model is nil")
	}

	owned := make([]models.Title, len(titles))
	copy(owned, titles)
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	byID := make(map[string]int, len(owned))
	vectors := make([]vector.SparseVector, len(owned))
	for i := range owned {
		t := &owned[i]
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate title id %q", t.ID)
		}
		if t.Vector.IsZero() {
			return nil, fmt.Errorf("title %q has no vector", t.ID)
		}
		byID[t.ID] = i
		vectors[i] = t.Vector
	}

	return &CorpusHandle{
		version: version,
		titles:  owned,
		byID:    byID,
		model:   model,
		index:   vector.NewIndex(vectors),
	}, nil
}

// FromArtifacts builds a handle from a loaded artifact set.
func FromArtifacts(set *storage.ArtifactSet) (*CorpusHandle, error) {
	if set == nil {
		return nil, ErrEmptyCorpus
	}
	h, err := NewCorpusHandle(set.Version, set.Titles, set.Model)
	if err != nil {
		return nil, fmt.Errorf("artifact set v%d: %w", set.Version, err)
	}
	h.buildID = set.BuildID
	h.builtAt = set.BuiltAt
	return h, nil
}

// Version returns the artifact version stamp.
func (h *CorpusHandle) Version() int64 { return h.version }

// BuildID returns the identifier of the build that produced the corpus.
func (h *CorpusHandle) BuildID() string { return h.buildID }

// BuiltAt returns when the corpus was built.
func (h *CorpusHandle) BuiltAt() time.Time { return h.builtAt }

// Len returns the number of titles.
func (h *CorpusHandle) Len() int { return len(h.titles) }

// Model returns the fitted term-weighting model.
func (h *CorpusHandle) Model() *vector.Model { return h.model }

// Title looks up a title by ID. The returned pointer must not be modified.
func (h *CorpusHandle) Title(id string) (*models.Title, bool) {
	i, ok := h.byID[id]
	if !ok {
		return nil, false
	}
	return &h.titles[i], true
}

// Similar ranks the corpus against title id by descending cosine
// similarity, ties by ascending ID. The title itself is included. depth
// limits the ranking length; depth <= 0 returns the full ranking. The
// second result is false when id is not in the corpus.
func (h *CorpusHandle) Similar(id string, depth int) ([]Neighbor, bool) {
	i, ok := h.byID[id]
	if !ok {
		return nil, false
	}
	ranking := h.index.Rank(h.titles[i].Vector)
	if depth <= 0 || depth > len(ranking) {
		depth = len(ranking)
	}
	out := make([]Neighbor, depth)
	for k := 0; k < depth; k++ {
		out[k] = Neighbor{Title: &h.titles[ranking[k].Doc], Score: ranking[k].Score}
	}
	return out, true
}
