// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package builder

import (
	"context"
	"fmt"
)

// BasicsRecord is one row of the title catalog.
type BasicsRecord struct {
	ID           string
	TitleType    string // IMDb titleType: movie, tvSeries, tvEpisode, ...
	PrimaryTitle string
	Genres       []string
	StartYear    int // 0 when unknown
}

// AkaRecord is one alternative title of a title in a region.
type AkaRecord struct {
	TitleID string
	Region  string
}

// RatingRecord is the rating of a title.
type RatingRecord struct {
	TitleID       string
	AverageRating float64
	NumVotes      int
}

// PrincipalRecord is one billed cast or crew member of a title.
type PrincipalRecord struct {
	TitleID  string
	Ordering int
	PersonID string
	Category string // actor, actress, director, writer, ...
}

// NameRecord resolves a person ID to a display name.
type NameRecord struct {
	PersonID string
	Name     string
}

// Sources provides the record streams the builder consumes. Each method
// calls fn once per record and stops at the first error fn returns.
// Implementations must honour ctx cancellation. Streams may be read
// concurrently with each other.
//
// A stream whose underlying data holds no rows returns an error wrapping
// ErrEmptySource. Rows dropped by filters an implementation pushes down
// do not count: a non-empty stream that matches nothing returns nil
// without calling fn.
type Sources interface {
	Basics(ctx context.Context, fn func(BasicsRecord) error) error
	Akas(ctx context.Context, fn func(AkaRecord) error) error
	Ratings(ctx context.Context, fn func(RatingRecord) error) error
	Principals(ctx context.Context, fn func(PrincipalRecord) error) error
	Names(ctx context.Context, fn func(NameRecord) error) error
}

// StaticSources serves records from memory. Useful for tests and small
// hand-made catalogs.
type StaticSources struct {
	BasicsRecords    []BasicsRecord
	AkaRecords       []AkaRecord
	RatingRecords    []RatingRecord
	PrincipalRecords []PrincipalRecord
	NameRecords      []NameRecord
}

func each[T any](ctx context.Context, name string, records []T, fn func(T) error) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySource, name)
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Basics implements Sources.
func (s *StaticSources) Basics(ctx context.Context, fn func(BasicsRecord) error) error {
	return each(ctx, "basics", s.BasicsRecords, fn)
}

// Akas implements Sources.
func (s *StaticSources) Akas(ctx context.Context, fn func(AkaRecord) error) error {
	return each(ctx, "akas", s.AkaRecords, fn)
}

// Ratings implements Sources.
func (s *StaticSources) Ratings(ctx context.Context, fn func(RatingRecord) error) error {
	return each(ctx, "ratings", s.RatingRecords, fn)
}

// Principals implements Sources.
func (s *StaticSources) Principals(ctx context.Context, fn func(PrincipalRecord) error) error {
	return each(ctx, "principals", s.PrincipalRecords, fn)
}

// Names implements Sources.
func (s *StaticSources) Names(ctx context.Context, fn func(NameRecord) error) error {
	return each(ctx, "names", s.NameRecords, fn)
}
