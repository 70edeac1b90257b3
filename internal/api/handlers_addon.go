// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/foryou/internal/logging"
	"github.com/tomtom215/foryou/internal/models"
	"github.com/tomtom215/foryou/internal/recommend"
)

// CatalogID is the single catalog this addon publishes for each kind.
const CatalogID = "for_you_recs"

// Manifest describes the addon to clients.
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Types       []string          `json:"types"`
	Resources   []string          `json:"resources"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

// ManifestCatalog is one catalog entry of the manifest.
type ManifestCatalog struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Extra []ManifestExtra `json:"extra,omitempty"`
}

// ManifestExtra declares an optional catalog argument.
type ManifestExtra struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired"`
}

// DefaultManifest returns the manifest served at /manifest.json.
func DefaultManifest() *Manifest {
	catalog := func(kind models.Kind) ManifestCatalog {
		return ManifestCatalog{
			Type:  kind.String(),
			ID:    CatalogID,
			Name:  "For You",
			Extra: []ManifestExtra{{Name: "skip", IsRequired: false}},
		}
	}
	return &Manifest{
		ID:          "community.dynamic.recommendations",
		Version:     "1.1.0",
		Name:        "For You Recommendations",
		Description: "A dynamic catalog of recommendations based on your viewing history.",
		Types:       []string{models.KindMovie.String(), models.KindSeries.String()},
		Resources:   []string{"catalog", "meta"},
		Catalogs:    []ManifestCatalog{catalog(models.KindMovie), catalog(models.KindSeries)},
		IDPrefixes:  []string{"tt"},
	}
}

// MetaPreview is one catalog entry.
type MetaPreview struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	PosterShape string `json:"posterShape"`
}

// CatalogResponse is the body of a catalog request.
type CatalogResponse struct {
	Metas   []MetaPreview `json:"metas"`
	HasMore bool          `json:"hasMore"`
}

// metaRequest carries the path parameters of a meta request.
type metaRequest struct {
	ID string `json:"id" validate:"required,titleid"`
}

// catalogRequest carries the path parameters of a catalog request.
type catalogRequest struct {
	Skip int `json:"skip" validate:"gte=0"`
}

// Manifest serves the addon manifest.
func (h *Handler) Manifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.manifest)
}

// Meta records that the viewer opened a title and answers with an empty
// meta object. IDs that are not IMDb title IDs are answered but not
// recorded; a failed publish is logged and does not fail the request.
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "unknown type", nil)
		return
	}
	id := chi.URLParam(r, "id")
	logger := logging.Ctx(r.Context())

	if apiErr := validateRequest(&metaRequest{ID: id}); apiErr != nil {
		logger.Debug().Str("id", sanitizeLogValue(id)).Msg("meta request for a non-IMDb id, not recorded")
		writeJSON(w, http.StatusOK, map[string]interface{}{"meta": struct{}{}})
		return
	}

	view := models.View{
		TitleID:   id,
		Kind:      kind,
		Timestamp: h.now().UTC(),
		Source:    models.SourceLocal,
	}
	if err := h.recorder.Record(r.Context(), view); err != nil {
		logger.Error().Err(err).Str("id", id).Str("kind", kind.String()).Msg("Failed to record view")
	} else {
		logger.Info().Str("id", id).Str("kind", kind.String()).Msg("view recorded")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"meta": struct{}{}})
}

// Catalog serves one page of the for_you_recs catalog.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "unknown type", nil)
		return
	}

	skip, err := parseIntParam(chi.URLParam(r, "skip"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "skip "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&catalogRequest{Skip: skip}); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	page, err := h.engine.GetRecommendations(r.Context(), kind, skip)
	if err != nil {
		h.recommendError(w, err)
		return
	}

	resp := CatalogResponse{Metas: make([]MetaPreview, len(page.Items)), HasMore: page.HasMore}
	for i, item := range page.Items {
		resp.Metas[i] = MetaPreview{
			ID:          item.ID,
			Type:        item.Kind.String(),
			Name:        item.Name,
			Poster:      item.PosterURL,
			PosterShape: "poster",
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// recommendError maps engine errors to HTTP responses.
func (h *Handler) recommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownKind):
		respondError(w, http.StatusBadRequest, CodeValidation, "kind must be one of: movie series", nil)
	case errors.Is(err, recommend.ErrCorpusNotLoaded):
		respondError(w, http.StatusServiceUnavailable, CodeCorpusNotLoaded, "recommendation corpus is not loaded", nil)
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to compute recommendations", err)
	}
}
