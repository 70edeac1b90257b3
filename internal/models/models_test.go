// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"movie", KindMovie, false},
		{"Movies", KindMovie, false},
		{"series", KindSeries, false},
		{"tvSeries", KindSeries, false},
		{"show", KindSeries, false},
		{" shows ", KindSeries, false},
		{"tvEpisode", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKind(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestView_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{"valid", View{TitleID: "tt0111161", Kind: KindMovie, Timestamp: now}, false},
		{"missing id", View{Kind: KindMovie, Timestamp: now}, true},
		{"bad kind", View{TitleID: "tt0111161", Kind: "episode", Timestamp: now}, true},
		{"zero time", View{TitleID: "tt0111161", Kind: KindSeries}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.view.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
