// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package vector

import "sort"

type posting struct {
	doc    int32
	weight float32
}

// Scored is one entry of a similarity ranking.
type Scored struct {
	Doc   int
	Score float64
}

// Index holds a corpus of L2-normalised vectors in inverted form. It is
// immutable after construction and safe for concurrent use.
type Index struct {
	size     int
	postings map[int32][]posting
}

// NewIndex builds an inverted index over vectors. Document i of the index
// is vectors[i].
func NewIndex(vectors []SparseVector) *Index {
	idx := &Index{
		size:     len(vectors),
		postings: make(map[int32][]posting),
	}
	for doc, v := range vectors {
		for k, term := range v.Indices {
			idx.postings[term] = append(idx.postings[term], posting{
				doc:    int32(doc), //nolint:gosec // corpus size is bounded well below MaxInt32
				weight: v.Values[k],
			})
		}
	}
	return idx
}

// Len returns the number of documents in the index.
func (x *Index) Len() int {
	return x.size
}

// Scores returns the cosine similarity of query against every document,
// index-aligned with the corpus.
func (x *Index) Scores(query SparseVector) []float64 {
	scores := make([]float64, x.size)
	for k, term := range query.Indices {
		qw := float64(query.Values[k])
		for _, p := range x.postings[term] {
			scores[p.doc] += qw * float64(p.weight)
		}
	}
	return scores
}

// Rank returns every document ordered by descending similarity to query.
// Equal scores are ordered by ascending document number, so the ranking is
// fully deterministic.
func (x *Index) Rank(query SparseVector) []Scored {
	scores := x.Scores(query)
	out := make([]Scored, len(scores))
	for i, s := range scores {
		out[i] = Scored{Doc: i, Score: s}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Doc < out[j].Doc
	})
	return out
}
