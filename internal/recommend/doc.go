// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package recommend implements the online half of ForYou: candidate
// generation, ranking and pagination over a content-similarity corpus.
//
// # Architecture
//
// A request flows through three stages:
//
//   - Seeds: the viewer's most recent titles of the requested kind, read
//     from the watch-history store (HistoryReader)
//   - Candidate generation: for each seed, most recent first, the full
//     cosine ranking of the corpus is walked in descending similarity and
//     unseen titles are pooled until the pool reaches its target size
//   - Ranking: kind and rating filters, an ordered partition of candidates
//     into priority-region buckets with a trailing "Other" bucket, a sort
//     inside each bucket, concatenation, truncation and a page slice
//
// # Corpus
//
// The corpus is an immutable CorpusHandle built from one published
// artifact set. Titles own their vectors, so the title table and the
// similarity space cannot drift apart. The Engine holds the handle in an
// atomic pointer: requests read it without locks and a reload swaps in a
// new handle without disturbing requests in flight.
//
// # Design Principles
//
//   - Deterministic: similarity ties break by title ID, bucket ties by
//     rating then title ID
//   - Explainable: every result carries the similarity score that admitted it
//   - Best-effort: a failing history store yields an empty page, not an error
//
// # Usage
//
//	handle, err := recommend.FromArtifacts(set)
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), historyStore, logger)
//	engine.Swap(handle)
//
//	page, err := engine.GetRecommendations(ctx, models.KindMovie, 0)
package recommend
