// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package vector implements the term-weighting similarity provider behind
// content recommendations.
//
// A [Vectorizer] fits a TF-IDF model over unigrams and bigrams of English
// text with stopwords removed. Documents become L2-normalised [SparseVector]
// values, so the dot product of two vectors is their cosine similarity.
// An [Index] holds the vectors of a whole corpus in inverted form and ranks
// every document against a query in one pass over the query's postings.
//
// # Weighting
//
// Term frequency is the raw count of a term in the document. Inverse
// document frequency is smoothed:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// where n is the number of fitted documents and df(t) the number that
// contain t. The vocabulary is kept sorted, so two fits over the same
// documents produce identical models.
package vector
