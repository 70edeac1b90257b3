// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/foryou/internal/models"
)

// HealthLive handles liveness checks. It answers 200 as long as
// the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles readiness checks. The service is ready once
// a corpus is loaded; a failing history store is reported but does not
// make the service unready, since recommendations degrade to empty pages.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	version, titles, loaded := h.engine.CorpusStatus()

	status := models.HealthStatus{
		Status:        "ready",
		CorpusLoaded:  loaded,
		CorpusVersion: version,
		CorpusTitles:  titles,
		Timestamp:     time.Now().UTC(),
	}

	if h.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		_, err := h.history.Count(ctx)
		cancel()
		status.HistoryOK = err == nil
		if err != nil {
			h.logger.Warn().Err(err).Msg("history store health check failed")
		}
	}

	code := http.StatusOK
	envelope := "success"
	if !loaded {
		code = http.StatusServiceUnavailable
		status.Status = "not_ready"
		envelope = "error"
	}

	respondJSON(w, code, &models.APIResponse{
		Status: envelope,
		Data:   status,
	})
}
