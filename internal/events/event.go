// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/foryou/internal/models"
)

// DefaultTopic carries view events.
const DefaultTopic = "history.views"

// ErrInvalidEvent marks a payload that can never be applied. The consumer
// drops such messages instead of retrying them.
var ErrInvalidEvent = errors.New("invalid view event")

// ViewEvent is the wire form of a watch signal.
type ViewEvent struct {
	EventID   string            `json:"event_id"`
	TitleID   string            `json:"title_id"`
	Kind      models.Kind       `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Source    models.ViewSource `json:"source"`
}

// NewViewEvent wraps v with a fresh event ID.
func NewViewEvent(v models.View) *ViewEvent {
	return &ViewEvent{
		EventID:   uuid.New().String(),
		TitleID:   v.TitleID,
		Kind:      v.Kind,
		Timestamp: v.Timestamp.UTC(),
		Source:    v.Source,
	}
}

// View converts the event back into a history row.
func (e *ViewEvent) View() models.View {
	return models.View{
		TitleID:   e.TitleID,
		Kind:      e.Kind,
		Timestamp: e.Timestamp,
		Source:    e.Source,
	}
}

// Marshal encodes the event as JSON.
func (e *ViewEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalViewEvent decodes and validates a payload.
func UnmarshalViewEvent(data []byte) (*ViewEvent, error) {
	var e ViewEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	v := e.View()
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return &e, nil
}
