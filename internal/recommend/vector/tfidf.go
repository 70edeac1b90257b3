// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package vector

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// ErrNoDocuments is returned when fitting an empty document set.
var ErrNoDocuments = errors.New("no documents to fit")

// Vectorizer fits TF-IDF models. The zero value fits unigrams only.
type Vectorizer struct {
	NGramMin int
	NGramMax int
}

// NewVectorizer returns a vectorizer over unigrams and bigrams.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{NGramMin: 1, NGramMax: 2}
}

func (v *Vectorizer) ngramRange() (int, int) {
	minN, maxN := v.NGramMin, v.NGramMax
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	return minN, maxN
}

// Model is a fitted TF-IDF model. It is gob-encodable; the term lookup
// table is rebuilt on first use after decoding.
type Model struct {
	// Vocabulary holds every term, sorted. A term's position is its index.
	Vocabulary []string

	// IDF is index-aligned with Vocabulary.
	IDF []float32

	NGramMin int
	NGramMax int
	DocCount int

	lookupOnce sync.Once
	lookup     map[string]int32
}

// Fit learns the vocabulary and IDF weights of docs.
func (v *Vectorizer) Fit(ctx context.Context, docs []string) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	minN, maxN := v.ngramRange()

	df := make(map[string]int)
	for i, doc := range docs {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		seen := make(map[string]struct{})
		for _, term := range Analyze(doc, minN, maxN) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float32, len(vocab))
	for i, term := range vocab {
		idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1)
	}

	return &Model{
		Vocabulary: vocab,
		IDF:        idf,
		NGramMin:   minN,
		NGramMax:   maxN,
		DocCount:   len(docs),
	}, nil
}

// FitTransform fits a model and transforms every document with it.
func (v *Vectorizer) FitTransform(ctx context.Context, docs []string) (*Model, []SparseVector, error) {
	m, err := v.Fit(ctx, docs)
	if err != nil {
		return nil, nil, err
	}
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		out[i] = m.Transform(doc)
	}
	return m, out, nil
}

func (m *Model) termIndex() map[string]int32 {
	m.lookupOnce.Do(func() {
		m.lookup = make(map[string]int32, len(m.Vocabulary))
		for i, term := range m.Vocabulary {
			m.lookup[term] = int32(i) //nolint:gosec // vocabulary size is bounded well below MaxInt32
		}
	})
	return m.lookup
}

// VocabularySize returns the number of fitted terms.
func (m *Model) VocabularySize() int {
	return len(m.Vocabulary)
}

// Transform maps doc onto the fitted vocabulary. Unknown terms are
// ignored. The result is L2-normalised; a document with no known terms
// yields the zero vector.
func (m *Model) Transform(doc string) SparseVector {
	lookup := m.termIndex()

	counts := make(map[int32]float64)
	for _, term := range Analyze(doc, m.NGramMin, m.NGramMax) {
		if idx, ok := lookup[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	weights := make([]float64, len(indices))
	var sumSq float64
	for i, idx := range indices {
		w := counts[idx] * float64(m.IDF[idx])
		weights[i] = w
		sumSq += w * w
	}
	norm := math.Sqrt(sumSq)

	values := make([]float32, len(indices))
	for i, w := range weights {
		values[i] = float32(w / norm)
	}
	return SparseVector{Indices: indices, Values: values}
}
