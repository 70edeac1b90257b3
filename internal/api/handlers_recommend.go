// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/foryou/internal/models"
)

// RecommendationsRequest is the validated query of GET /api/v1/recommendations.
type RecommendationsRequest struct {
	Kind string `json:"kind" validate:"required,oneof=movie series"`
	Skip int    `json:"skip" validate:"gte=0"`
}

// Recommendations returns one page of recommendations in the APIResponse
// envelope.
//
// Query parameters:
//   - kind: movie or series (required)
//   - skip: non-negative offset into the ranked list (default 0)
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	skip, err := parseIntParam(q.Get("skip"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "skip "+err.Error(), nil)
		return
	}
	req := RecommendationsRequest{Kind: q.Get("kind"), Skip: skip}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	page, err := h.engine.GetRecommendations(r.Context(), models.Kind(req.Kind), req.Skip)
	if err != nil {
		h.recommendError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   page,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
