// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import (
	"sort"

	"github.com/tomtom215/foryou/internal/models"
)

// RankParams controls filtering, ordering and slicing of a candidate pool.
type RankParams struct {
	// Kind keeps only candidates of this kind. Empty keeps all.
	Kind models.Kind

	MinimumRating   float64
	PriorityRegions []string

	// TotalLimit caps the ranked list before pagination.
	TotalLimit int

	Skip     int
	PageSize int
}

// TopRegion returns the highest-priority region, or "" if none is set.
func (p *RankParams) TopRegion() string {
	if len(p.PriorityRegions) == 0 {
		return ""
	}
	return p.PriorityRegions[0]
}

// Bucket is one region group of the ordered partition.
type Bucket struct {
	Region     string
	Candidates []Candidate
}

// Page is one slice of a ranked list.
type Page struct {
	Candidates []Candidate
	HasMore    bool

	// Ranked is the length of the truncated list the page was cut from.
	Ranked int
}

// IsEligible applies the rating rule: a title qualifies with a rating of
// at least minRating, and unrated titles qualify only from topRegion.
func IsEligible(t *models.Title, minRating float64, topRegion string) bool {
	if t.AverageRating >= minRating {
		return true
	}
	return topRegion != "" && t.PrimaryRegion == topRegion && t.AverageRating == 0
}

// PartitionByRegion groups candidates into one bucket per priority region,
// in order, plus a trailing Other bucket that collects every remaining
// region. All len(regions)+1 buckets are returned, possibly empty, and no
// candidate is dropped. Candidate order inside a bucket is preserved.
func PartitionByRegion(candidates []Candidate, regions []string) []Bucket {
	buckets := make([]Bucket, 0, len(regions)+1)
	slot := make(map[string]int, len(regions))
	for _, r := range regions {
		if _, dup := slot[r]; dup || r == models.OtherRegion {
			continue
		}
		slot[r] = len(buckets)
		buckets = append(buckets, Bucket{Region: r})
	}
	other := len(buckets)
	buckets = append(buckets, Bucket{Region: models.OtherRegion})

	for _, c := range candidates {
		i, ok := slot[c.Title.PrimaryRegion]
		if !ok {
			i = other
		}
		buckets[i].Candidates = append(buckets[i].Candidates, c)
	}
	return buckets
}

// sortBucket orders by score, then rating, then ID, all but ID descending.
func sortBucket(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Title.AverageRating != b.Title.AverageRating {
			return a.Title.AverageRating > b.Title.AverageRating
		}
		return a.Title.ID < b.Title.ID
	})
}

// Rank filters, orders and paginates candidates.
//
//  1. Keep candidates of the requested kind.
//  2. Keep rating-eligible candidates (IsEligible).
//  3. Partition by region priority with a trailing Other bucket.
//  4. Sort each bucket and concatenate in priority order.
//  5. Truncate to TotalLimit and slice [Skip, Skip+PageSize).
//
// HasMore reports whether items remain after the page within the
// truncated list.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func Rank(candidates []Candidate, params RankParams) Page {
	if params.TotalLimit <= 0 {
		return Page{}
	}

	topRegion := params.TopRegion()

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if params.Kind != "" && c.Title.Kind != params.Kind {
			continue
		}
		if !IsEligible(c.Title, params.MinimumRating, topRegion) {
			continue
		}
		eligible = append(eligible, c)
	}

	ranked := make([]Candidate, 0, len(eligible))
	for _, b := range PartitionByRegion(eligible, params.PriorityRegions) {
		sortBucket(b.Candidates)
		ranked = append(ranked, b.Candidates...)
	}
	if len(ranked) > params.TotalLimit {
		ranked = ranked[:params.TotalLimit]
	}

	skip := params.Skip
	if skip < 0 {
		skip = 0
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = len(ranked)
	}
	if skip >= len(ranked) {
		return Page{Ranked: len(ranked)}
	}
	end := skip + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return Page{
		Candidates: ranked[skip:end],
		HasMore:    skip+pageSize < len(ranked),
		Ranked:     len(ranked),
	}
}
