// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package models

import (
	"errors"
	"time"
)

// ViewSource identifies who produced a watch event.
type ViewSource string

const (
	// SourceLocal is a playback signal received by this service. Local views
	// carry precise timestamps and upsert.
	SourceLocal ViewSource = "local"

	// SourceTrakt is a bulk import from Trakt. Sync views never overwrite an
	// existing row.
	SourceTrakt ViewSource = "trakt"
)

// View is one watch-history row. There is at most one row per TitleID.
type View struct {
	TitleID   string     `json:"title_id" validate:"required,titleid"`
	Kind      Kind       `json:"kind" validate:"required,oneof=movie series"`
	Timestamp time.Time  `json:"timestamp" validate:"required"`
	Source    ViewSource `json:"source,omitempty"`
}

// Validate performs cheap structural checks without the validator.
func (v *View) Validate() error {
	if v.TitleID == "" {
		return errors.New("view: title id is required")
	}
	if !v.Kind.Valid() {
		return ErrUnknownKind
	}
	if v.Timestamp.IsZero() {
		return errors.New("view: timestamp is required")
	}
	return nil
}
