// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// Config contains the request-time settings of the engine.
type Config struct {
	// PageSize is the number of items per page.
	PageSize int `json:"page_size"`

	// PriorityRegions orders the region buckets. The first entry is the
	// top-priority region, the only one whose unrated titles are kept.
	PriorityRegions []string `json:"priority_regions"`

	// HistorySeedCount is how many recent titles seed candidate generation.
	HistorySeedCount int `json:"history_seed_count"`

	// TotalLimit caps the ranked list before pagination.
	TotalLimit int `json:"total_limit"`

	// MinimumRating is the rating eligibility threshold.
	MinimumRating float64 `json:"minimum_rating"`

	// NeighborsPerSeed caps the candidates one seed may contribute.
	// Zero lets a single seed fill the pool.
	NeighborsPerSeed int `json:"neighbors_per_seed"`

	// CandidatePoolSize is the pool target. Zero derives it, see PoolTarget.
	CandidatePoolSize int `json:"candidate_pool_size"`

	// ImageBaseURL prefixes poster URLs.
	ImageBaseURL string `json:"image_base_url"`

	// RankingCacheSize bounds the per-seed similarity ranking cache.
	// Zero disables caching.
	RankingCacheSize int           `json:"ranking_cache_size"`
	RankingCacheTTL  time.Duration `json:"ranking_cache_ttl"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		PageSize:          50,
		PriorityRegions:   []string{"IN"},
		HistorySeedCount:  5,
		TotalLimit:        50,
		MinimumRating:     4.9,
		NeighborsPerSeed:  0,
		CandidatePoolSize: 100,
		ImageBaseURL:      "https://images.metahub.space",
		RankingCacheSize:  1024,
		RankingCacheTTL:   time.Hour,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.HistorySeedCount < 1 {
		return fmt.Errorf("history_seed_count must be positive, got %d", c.HistorySeedCount)
	}
	if c.TotalLimit < 0 {
		return fmt.Errorf("total_limit must be non-negative, got %d", c.TotalLimit)
	}
	if c.MinimumRating < 0 {
		return fmt.Errorf("minimum_rating must be non-negative, got %f", c.MinimumRating)
	}
	if c.NeighborsPerSeed < 0 {
		return fmt.Errorf("neighbors_per_seed must be non-negative, got %d", c.NeighborsPerSeed)
	}
	if c.CandidatePoolSize < 0 {
		return fmt.Errorf("candidate_pool_size must be non-negative, got %d", c.CandidatePoolSize)
	}
	if c.RankingCacheSize < 0 {
		return fmt.Errorf("ranking_cache_size must be non-negative, got %d", c.RankingCacheSize)
	}
	for _, r := range c.PriorityRegions {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("priority_regions must not contain empty entries")
		}
	}
	return nil
}

// PoolTarget returns the effective candidate pool size.
func (c *Config) PoolTarget() int {
	if c.CandidatePoolSize > 0 {
		return c.CandidatePoolSize
	}
	if c.NeighborsPerSeed > 0 {
		return c.HistorySeedCount * c.NeighborsPerSeed
	}
	return c.TotalLimit
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.PriorityRegions = append([]string(nil), c.PriorityRegions...)
	return &out
}
