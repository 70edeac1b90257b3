// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package models

import (
	"time"
)

// APIResponse is the envelope returned by every /api/v1 endpoint.
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "skip must be greater than or equal to 0"},
//	  "metadata": {"timestamp": "2026-10-16T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendationItem is one recommended title.
type RecommendationItem struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name"`
	PosterURL string   `json:"poster_url"`
	Score     *float64 `json:"score,omitempty"`
}

// RecommendationPage is the payload of GET /api/v1/recommendations.
type RecommendationPage struct {
	Items         []RecommendationItem `json:"items"`
	HasMore       bool                 `json:"has_more"`
	CorpusVersion int64                `json:"corpus_version"`
}

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string    `json:"status"`
	CorpusLoaded  bool      `json:"corpus_loaded"`
	CorpusVersion int64     `json:"corpus_version,omitempty"`
	CorpusTitles  int       `json:"corpus_titles,omitempty"`
	HistoryOK     bool      `json:"history_ok"`
	Timestamp     time.Time `json:"timestamp"`
}
