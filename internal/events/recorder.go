// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/foryou/internal/logging"
	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
)

// Recorder publishes watch signals to the bus.
type Recorder struct {
	pub   message.Publisher
	topic string
}

// NewRecorder creates a recorder publishing to topic.
func NewRecorder(pub message.Publisher, topic string) *Recorder {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Recorder{pub: pub, topic: topic}
}

// Record validates v and publishes it. The write to the history store
// happens asynchronously in the consumer.
func (r *Recorder) Record(ctx context.Context, v models.View) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	e := NewViewEvent(v)
	payload, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}

	msg := message.NewMessage(e.EventID, payload)
	msg.Metadata.Set("source", string(e.Source))
	msg.Metadata.Set("kind", string(e.Kind))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.SetContext(ctx)

	if err := r.pub.Publish(r.topic, msg); err != nil {
		return fmt.Errorf("publish view event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(string(e.Source)).Inc()
	return nil
}

// RecordAll publishes views in order and stops at the first error.
func (r *Recorder) RecordAll(ctx context.Context, views []models.View) (int, error) {
	for i, v := range views {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := r.Record(ctx, v); err != nil {
			return i, err
		}
	}
	return len(views), nil
}
