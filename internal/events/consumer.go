// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/metrics"
	"github.com/tomtom215/foryou/internal/models"
)

// HistoryWriter is the write half of the history store.
type HistoryWriter interface {
	RecordView(ctx context.Context, v models.View) (bool, error)
	InsertIfAbsent(ctx context.Context, v models.View) (bool, error)
}

// ConsumerConfig tunes retries of failed writes.
type ConsumerConfig struct {
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	CloseTimeout         time.Duration
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		CloseTimeout:         10 * time.Second,
	}
}

// Consumer applies view events to the history store. Local views upsert;
// views from any other source are inserted only when absent. It
// implements suture.Service.
type Consumer struct {
	sub    message.Subscriber
	topic  string
	store  HistoryWriter
	cfg    ConsumerConfig
	wmLog  watermill.LoggerAdapter
	logger zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// NewConsumer creates a consumer of bus.Topic.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsumer(bus *Bus, store HistoryWriter, cfg ConsumerConfig, wmLog watermill.LoggerAdapter, logger zerolog.Logger) *Consumer {
	if wmLog == nil {
		wmLog = watermill.NopLogger{}
	}
	return &Consumer{
		sub:    bus.Subscriber,
		topic:  bus.Topic,
		store:  store,
		cfg:    cfg,
		wmLog:  wmLog,
		logger: logger.With().Str("component", "history-consumer").Logger(),
		ready:  make(chan struct{}),
	}
}

// Running is closed once the consumer has subscribed for the first time.
// Publishers on a non-persistent bus wait on it to avoid dropping events.
func (c *Consumer) Running() <-chan struct{} {
	return c.ready
}

// Serve runs the watermill router until ctx is cancelled.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.wmLog)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}

	// Outermost first: recover panics, drop what still fails after
	// retries, retry transient store errors.
	router.AddMiddleware(
		middleware.Recoverer,
		c.dropAfterRetries,
		middleware.Retry{
			MaxRetries:      c.cfg.RetryMaxRetries,
			InitialInterval: c.cfg.RetryInitialInterval,
			MaxInterval:     c.cfg.RetryMaxInterval,
			Multiplier:      2,
			Logger:          c.wmLog,
		}.Middleware,
	)
	router.AddConsumerHandler("history-writer", c.topic, c.sub, c.Handle)

	go func() {
		select {
		case <-router.Running():
			c.readyOnce.Do(func() { close(c.ready) })
			c.logger.Info().Str("topic", c.topic).Msg("history consumer running")
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("history consumer: %w", err)
	}
	return ctx.Err()
}

// Handle applies one message. Undecodable payloads are acknowledged and
// dropped since redelivery cannot fix them.
func (c *Consumer) Handle(msg *message.Message) error {
	e, err := UnmarshalViewEvent(msg.Payload)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("invalid").Inc()
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping invalid view event")
		return nil
	}

	v := e.View()
	ctx := msg.Context()
	var written bool
	if v.Source == models.SourceLocal {
		written, err = c.store.RecordView(ctx, v)
	} else {
		written, err = c.store.InsertIfAbsent(ctx, v)
	}
	if err != nil {
		return fmt.Errorf("apply view %s: %w", v.TitleID, err)
	}

	metrics.EventsConsumed.WithLabelValues("applied").Inc()
	c.logger.Debug().
		Str("title_id", v.TitleID).
		Str("source", string(v.Source)).
		Bool("written", written).
		Msg("view applied")
	return nil
}

func (c *Consumer) dropAfterRetries(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err == nil || errors.Is(err, context.Canceled) {
			return out, err
		}
		metrics.EventsConsumed.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("view event dropped after retries")
		return nil, nil
	}
}

// String implements fmt.Stringer for suture logging.
func (c *Consumer) String() string {
	return "history-consumer"
}
