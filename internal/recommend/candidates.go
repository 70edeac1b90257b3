// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package recommend

import "github.com/tomtom215/foryou/internal/models"

// SimilarityProvider ranks the corpus against one of its titles. It is
// satisfied by *CorpusHandle and by the engine's caching wrapper.
type SimilarityProvider interface {
	Similar(id string, depth int) ([]Neighbor, bool)
}

// Candidate is a pooled title with the similarity score of the seed that
// admitted it.
type Candidate struct {
	Title *models.Title
	Score float64
	Seed  string
}

// GenerateCandidates pools up to target unseen titles similar to seeds.
//
// Seeds are processed in the given order (most recent first). Each seed's
// ranking is walked in descending similarity, skipping the seed itself,
// titles in seen and titles already pooled, until the pool reaches target
// or the seed has contributed perSeed titles (perSeed <= 0 means no
// per-seed cap). Seeds missing from the corpus are skipped.
func GenerateCandidates(p SimilarityProvider, seeds []string, seen map[string]struct{}, target, perSeed int) []Candidate {
	if target <= 0 || len(seeds) == 0 {
		return nil
	}

	// Skips per seed are bounded by the seed itself, the seen set and the
	// pool, so this depth always reaches the quota when the corpus can.
	depth := 1 + len(seen) + target

	pooled := make(map[string]struct{}, target)
	out := make([]Candidate, 0, target)

	for _, seed := range seeds {
		if len(out) >= target {
			break
		}
		ranking, ok := p.Similar(seed, depth)
		if !ok {
			continue
		}

		added := 0
		for _, n := range ranking {
			id := n.Title.ID
			if id == seed {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			if _, ok := pooled[id]; ok {
				continue
			}
			pooled[id] = struct{}{}
			out = append(out, Candidate{Title: n.Title, Score: n.Score, Seed: seed})
			added++
			if len(out) >= target || (perSeed > 0 && added >= perSeed) {
				break
			}
		}
	}
	return out
}
