// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package imdb reads the public IMDb TSV datasets (title.basics,
// title.akas, title.ratings, title.principals, name.basics) through an
// in-memory DuckDB instance and exposes them as builder record streams.
//
// Files may be local paths or http(s) URLs, plain or gzip compressed.
// IMDb encodes missing values as \N; numeric columns are cast with
// TRY_CAST so malformed values become zero instead of failing the read.
package imdb
