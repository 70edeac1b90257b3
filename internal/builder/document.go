// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package builder

import (
	"strings"
	"unicode"

	"github.com/tomtom215/foryou/internal/models"
)

// Token repetition in the feature document.
const (
	GenreWeight    = 3
	DirectorWeight = 2
	ActorWeight    = 1
	TitleWeight    = 1
)

// CollapseName removes whitespace inside a name so that it becomes a
// single token: "Christopher Nolan" -> "ChristopherNolan".
func CollapseName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// tokenForm keeps only letters and digits, so names and genres such as
// "J.J. Abrams" or "Sci-Fi" stay one token after tokenization.
func tokenForm(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// FeatureDocument builds the weighted text document of a title: genres
// three times, directors twice, actors and title words once. It is a pure
// function of the title.
func FeatureDocument(t *models.Title) string {
	var parts []string
	repeat := func(tokens []string, n int) {
		for i := 0; i < n; i++ {
			for _, tok := range tokens {
				if f := tokenForm(tok); f != "" {
					parts = append(parts, f)
				}
			}
		}
	}

	repeat(t.Genres, GenreWeight)
	repeat(t.Directors, DirectorWeight)
	repeat(t.Actors, ActorWeight)
	for i := 0; i < TitleWeight; i++ {
		parts = append(parts, t.Name)
	}
	return strings.Join(parts, " ")
}

// ResolveRegion returns the first of priority that appears in regions,
// or models.OtherRegion.
func ResolveRegion(regions map[string]struct{}, priority []string) string {
	for _, r := range priority {
		if _, ok := regions[r]; ok {
			return r
		}
	}
	return models.OtherRegion
}
