// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package vector

import (
	"strings"
	"unicode"
)

// minTokenLen drops single-character tokens.
const minTokenLen = 2

// Tokenize lower-cases text and splits it into runs of letters, digits and
// underscores. Runs shorter than two characters are discarded.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	n := 0

	flush := func() {
		if n >= minTokenLen {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		n = 0
	}

	for _, r := range text {
		if isWordRune(r) {
			b.WriteRune(unicode.ToLower(r))
			n++
			continue
		}
		flush()
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Analyze turns a document into its terms: tokens with stopwords removed,
// expanded into n-grams of length minN..maxN joined by a single space.
func Analyze(text string, minN, maxN int) []string {
	words := Tokenize(text)
	kept := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			kept = append(kept, w)
		}
	}
	return ngrams(kept, minN, maxN)
}

func ngrams(words []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}

	terms := make([]string, 0, len(words)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			if n == 1 {
				terms = append(terms, words[i])
				continue
			}
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}
