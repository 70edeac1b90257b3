// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package vector

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lower-cases words", "The Dark Knight", []string{"the", "dark", "knight"}},
		{"drops single characters", "A I Robot", []string{"robot"}},
		{"splits on punctuation", "Sci-Fi,Drama", []string{"sci", "fi", "drama"}},
		{"keeps digits and underscores", "Blade_Runner 2049", []string{"blade_runner", "2049"}},
		{"unicode letters", "Amélie Poulain", []string{"amélie", "poulain"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalyze_RemovesStopwordsBeforeBigrams(t *testing.T) {
	got := Analyze("the lord of the rings", 1, 2)
	want := []string{"lord", "rings", "lord rings"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
}

func TestSparseVector_Dot(t *testing.T) {
	a := SparseVector{Indices: []int32{0, 2, 5}, Values: []float32{1, 2, 3}}
	b := SparseVector{Indices: []int32{2, 3, 5}, Values: []float32{4, 1, 1}}
	if got := a.Dot(b); got != 11 {
		t.Errorf("Dot() = %v, want 11", got)
	}
	if got := Cosine(a, SparseVector{}); got != 0 {
		t.Errorf("Cosine with zero vector = %v, want 0", got)
	}
}

func TestVectorizer_Fit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty corpus", func(t *testing.T) {
		_, err := NewVectorizer().Fit(ctx, nil)
		if !errors.Is(err, ErrNoDocuments) {
			t.Fatalf("Fit(nil) error = %v, want ErrNoDocuments", err)
		}
	})

	t.Run("deterministic vocabulary", func(t *testing.T) {
		docs := []string{"drama crime", "comedy drama", "crime thriller"}
		m1, err := NewVectorizer().Fit(ctx, docs)
		if err != nil {
			t.Fatal(err)
		}
		m2, err := NewVectorizer().Fit(ctx, docs)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(m1.Vocabulary, m2.Vocabulary) || !reflect.DeepEqual(m1.IDF, m2.IDF) {
			t.Error("two fits over the same documents differ")
		}
		for i := 1; i < len(m1.Vocabulary); i++ {
			if m1.Vocabulary[i-1] >= m1.Vocabulary[i] {
				t.Fatalf("vocabulary not sorted at %d: %v", i, m1.Vocabulary)
			}
		}
	})

	t.Run("smoothed idf", func(t *testing.T) {
		m, err := (&Vectorizer{NGramMin: 1, NGramMax: 1}).Fit(ctx, []string{"drama crime", "drama"})
		if err != nil {
			t.Fatal(err)
		}
		idx := m.termIndex()
		// drama in both docs: ln(3/3)+1 = 1; crime in one: ln(3/2)+1
		if got := m.IDF[idx["drama"]]; math.Abs(float64(got)-1) > 1e-6 {
			t.Errorf("idf(drama) = %v, want 1", got)
		}
		want := math.Log(1.5) + 1
		if got := m.IDF[idx["crime"]]; math.Abs(float64(got)-want) > 1e-6 {
			t.Errorf("idf(crime) = %v, want %v", got, want)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := NewVectorizer().Fit(cctx, []string{"drama"}); !errors.Is(err, context.Canceled) {
			t.Errorf("Fit() error = %v, want context.Canceled", err)
		}
	})
}

func TestModel_Transform(t *testing.T) {
	m, vecs, err := NewVectorizer().FitTransform(context.Background(), []string{
		"crime drama nolan",
		"crime drama scorsese",
		"comedy romance",
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range vecs {
		if n := v.Norm(); math.Abs(n-1) > 1e-5 {
			t.Errorf("vector %d norm = %v, want 1", i, n)
		}
		for k := 1; k < len(v.Indices); k++ {
			if v.Indices[k-1] >= v.Indices[k] {
				t.Errorf("vector %d indices not strictly increasing", i)
			}
		}
	}

	if got := m.Transform("nothing known here"); !got.IsZero() {
		t.Errorf("Transform(unknown) = %v, want zero vector", got)
	}
}

func TestModel_GobRoundTripRebuildsLookup(t *testing.T) {
	m, err := NewVectorizer().Fit(context.Background(), []string{"crime drama", "war drama"})
	if err != nil {
		t.Fatal(err)
	}
	want := m.Transform("war drama")

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded Model
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := decoded.Transform("war drama"); !reflect.DeepEqual(got, want) {
		t.Errorf("Transform after decode = %v, want %v", got, want)
	}
}

func TestIndex_Rank(t *testing.T) {
	_, vecs, err := NewVectorizer().FitTransform(context.Background(), []string{
		"crime drama gangster",
		"comedy romance",
		"crime drama heist",
		"crime drama gangster",
	})
	if err != nil {
		t.Fatal(err)
	}
	idx := NewIndex(vecs)
	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", idx.Len())
	}

	ranking := idx.Rank(vecs[0])
	if len(ranking) != 4 {
		t.Fatalf("Rank() returned %d entries, want the full corpus", len(ranking))
	}
	// docs 0 and 3 are identical: tie broken by document number
	if ranking[0].Doc != 0 || ranking[1].Doc != 3 {
		t.Errorf("top two = %d,%d, want 0,3", ranking[0].Doc, ranking[1].Doc)
	}
	if math.Abs(ranking[0].Score-1) > 1e-5 {
		t.Errorf("self similarity = %v, want 1", ranking[0].Score)
	}
	if ranking[2].Doc != 2 || ranking[3].Doc != 1 {
		t.Errorf("tail = %d,%d, want 2,1", ranking[2].Doc, ranking[3].Doc)
	}
	if ranking[3].Score != 0 {
		t.Errorf("unrelated score = %v, want 0", ranking[3].Score)
	}
}
