// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/models"
)

// mockWriter records the calls the consumer makes.
type mockWriter struct {
	mu       sync.Mutex
	recorded []models.View
	inserted []models.View
	failures int // fail this many calls before succeeding
	applied  chan struct{}
}

func newMockWriter() *mockWriter {
	return &mockWriter{applied: make(chan struct{}, 16)}
}

func (m *mockWriter) fail() error {
	if m.failures > 0 {
		m.failures--
		return errors.New("store busy")
	}
	return nil
}

func (m *mockWriter) RecordView(_ context.Context, v models.View) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return false, err
	}
	m.recorded = append(m.recorded, v)
	m.applied <- struct{}{}
	return true, nil
}

func (m *mockWriter) InsertIfAbsent(_ context.Context, v models.View) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return false, err
	}
	m.inserted = append(m.inserted, v)
	m.applied <- struct{}{}
	return true, nil
}

func fastConfig() ConsumerConfig {
	cfg := DefaultConsumerConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

func startConsumer(t *testing.T, bus *Bus, w HistoryWriter) *Consumer {
	t.Helper()
	c := NewConsumer(bus, w, fastConfig(), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-c.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}
	return c
}

func waitApplied(t *testing.T, w *mockWriter, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-w.applied:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d events applied", i, n)
		}
	}
}

func TestViewEvent_RoundTrip(t *testing.T) {
	v := models.View{TitleID: "tt0111161", Kind: models.KindMovie, Timestamp: time.Unix(1700000000, 0), Source: models.SourceTrakt}
	e := NewViewEvent(v)
	if e.EventID == "" {
		t.Fatal("event id not set")
	}
	data, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalViewEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalViewEvent() error = %v", err)
	}
	if gv := got.View(); gv.TitleID != v.TitleID || !gv.Timestamp.Equal(v.Timestamp) || gv.Source != v.Source {
		t.Errorf("round trip = %+v, want %+v", gv, v)
	}
}

func TestUnmarshalViewEvent_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":     "{",
		"missing id":   `{"kind":"movie","timestamp":"2026-01-01T00:00:00Z"}`,
		"unknown kind": `{"title_id":"tt1","kind":"episode","timestamp":"2026-01-01T00:00:00Z"}`,
		"no timestamp": `{"title_id":"tt1","kind":"movie"}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := UnmarshalViewEvent([]byte(payload)); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestRecorderConsumer_AppliesBySource(t *testing.T) {
	bus := NewChannelBus(DefaultTopic, 16, nil)
	defer bus.Close()
	w := newMockWriter()
	startConsumer(t, bus, w)

	rec := NewRecorder(bus.Publisher, bus.Topic)
	ctx := context.Background()
	now := time.Now()
	if err := rec.Record(ctx, models.View{TitleID: "tt0000001", Kind: models.KindMovie, Timestamp: now, Source: models.SourceLocal}); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(ctx, models.View{TitleID: "tt0000002", Kind: models.KindSeries, Timestamp: now, Source: models.SourceTrakt}); err != nil {
		t.Fatal(err)
	}
	waitApplied(t, w, 2)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.recorded) != 1 || w.recorded[0].TitleID != "tt0000001" {
		t.Errorf("RecordView calls = %+v", w.recorded)
	}
	if len(w.inserted) != 1 || w.inserted[0].TitleID != "tt0000002" {
		t.Errorf("InsertIfAbsent calls = %+v", w.inserted)
	}
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	bus := NewChannelBus(DefaultTopic, 16, nil)
	defer bus.Close()
	w := newMockWriter()
	w.failures = 2
	startConsumer(t, bus, w)

	rec := NewRecorder(bus.Publisher, "")
	if err := rec.Record(context.Background(), models.View{TitleID: "tt0000001", Kind: models.KindMovie, Timestamp: time.Now(), Source: models.SourceLocal}); err != nil {
		t.Fatal(err)
	}
	waitApplied(t, w, 1)
}

func TestConsumer_HandleDropsInvalidPayload(t *testing.T) {
	w := newMockWriter()
	c := NewConsumer(NewChannelBus(DefaultTopic, 0, nil), w, fastConfig(), nil, zerolog.Nop())
	if err := c.Handle(message.NewMessage("x", []byte("garbage"))); err != nil {
		t.Errorf("Handle(garbage) = %v, want nil (ack and drop)", err)
	}
	if len(w.recorded)+len(w.inserted) != 0 {
		t.Error("invalid payload reached the store")
	}
}

func TestRecorder_RejectsInvalidView(t *testing.T) {
	bus := NewChannelBus(DefaultTopic, 0, nil)
	defer bus.Close()
	rec := NewRecorder(bus.Publisher, "")
	if err := rec.Record(context.Background(), models.View{Kind: models.KindMovie}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Record() = %v, want ErrInvalidEvent", err)
	}
}

func TestNewBus(t *testing.T) {
	bus, err := NewBus(&config.EventsConfig{Backend: "channel", Topic: "views.test", BufferSize: 4}, nil)
	if err != nil {
		t.Fatalf("NewBus(channel) error = %v", err)
	}
	if bus.Backend != "channel" || bus.Topic != "views.test" {
		t.Errorf("bus = %+v", bus)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if _, err := NewBus(&config.EventsConfig{Backend: "kafka"}, nil); err == nil {
		t.Error("NewBus accepted an unknown backend")
	}
}
