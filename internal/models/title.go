// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/foryou/internal/recommend/vector"
)

// ErrUnknownKind is returned by ParseKind for unsupported media kinds.
var ErrUnknownKind = errors.New("unknown media kind")

// Kind is the media kind of a title.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// OtherRegion labels titles whose aliases match no priority region.
const OtherRegion = "Other"

// ParseKind accepts the kind names used by the catalog protocol, IMDb
// (tvSeries) and Trakt (show).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, nil
	case "series", "tvseries", "show", "shows":
		return KindSeries, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// String returns the catalog name of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Title is a qualified catalog title.
//
// Invariants established by the corpus builder:
//   - VoteCount >= the build's minimum votes threshold
//   - Year >= the build's year filter threshold
//   - Vector is the title's TF-IDF representation under the model it was
//     built with; a title and its vector are only ever replaced together
type Title struct {
	ID            string   `json:"id"`
	Kind          Kind     `json:"kind"`
	Name          string   `json:"name"`
	Genres        []string `json:"genres,omitempty"`
	Year          int      `json:"year"`
	Directors     []string `json:"directors,omitempty"`
	Actors        []string `json:"actors,omitempty"`
	PrimaryRegion string   `json:"primary_region"`
	AverageRating float64  `json:"average_rating"`
	VoteCount     int      `json:"vote_count"`

	Vector vector.SparseVector `json:"-"`
}

// Rated reports whether the title has a rating.
func (t *Title) Rated() bool {
	return t.AverageRating > 0
}
