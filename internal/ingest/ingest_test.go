// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lequangdung2005/melodex/internal/config"
	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

type fakeStore struct {
	mu           sync.Mutex
	playEvents   []models.PlayEvent
	skipEvents   []models.SkipEvent
	failedEvents []string
	failPlay     error
	playAttempts int
}

func (f *fakeStore) InsertPlayEvent(_ context.Context, event *models.PlayEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playAttempts++
	if f.failPlay != nil {
		return f.failPlay
	}
	f.playEvents = append(f.playEvents, *event)
	return nil
}

func (f *fakeStore) InsertSkipEvent(_ context.Context, event *models.SkipEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipEvents = append(f.skipEvents, *event)
	return nil
}

func (f *fakeStore) InsertFailedEvent(_ context.Context, _, topic string, _ []byte, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedEvents = append(f.failedEvents, topic+": "+reason)
	return nil
}

func (f *fakeStore) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.playEvents)
}

func (f *fakeStore) skipCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.skipEvents)
}

func (f *fakeStore) failedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failedEvents)
}

func (f *fakeStore) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playAttempts
}

type fakeCache struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeCache) InvalidateUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

func (f *fakeCache) invalidated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

func testIngestConfig() *config.IngestConfig {
	return &config.IngestConfig{
		RetryCount:           1,
		RetryInitialInterval: time.Millisecond,
		PoisonQueueTopic:     "events.poison",
		CloseTimeout:         5 * time.Second,
		BreakerMaxFailures:   100,
		BreakerTimeout:       time.Second,
	}
}

func newTestService(t *testing.T, store Store, cache CacheInvalidator) *Service {
	t.Helper()

	svc, err := NewService(testIngestConfig(), store, cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := svc.Run(ctx); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()
	<-svc.Running()

	t.Cleanup(func() {
		cancel()
		if err := svc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	return svc
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlayEventPersistedAndCacheInvalidated(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}
	svc := newTestService(t, store, cache)

	id, err := svc.PublishPlayEvent(context.Background(), &PlayEventMessage{
		UserID:         "u1",
		SongID:         "s1",
		PlayedAt:       time.Now().UTC(),
		DurationMS:     280000,
		CompletionRate: 0.93,
	})
	if err != nil {
		t.Fatalf("PublishPlayEvent() error = %v", err)
	}
	if id == "" {
		t.Fatal("PublishPlayEvent() returned empty id")
	}

	waitFor(t, "play event", func() bool { return store.playCount() == 1 })

	store.mu.Lock()
	got := store.playEvents[0]
	store.mu.Unlock()

	if got.ID != id {
		t.Errorf("persisted id = %s, want %s", got.ID, id)
	}
	if !got.Completed {
		t.Error("completion rate 0.93 should mark the play completed")
	}

	waitFor(t, "cache invalidation", func() bool { return len(cache.invalidated()) == 1 })
	if users := cache.invalidated(); users[0] != "u1" {
		t.Errorf("invalidated user = %s, want u1", users[0])
	}
}

func TestPlayEventBelowCompletionThreshold(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil)

	_, err := svc.PublishPlayEvent(context.Background(), &PlayEventMessage{
		UserID:         "u1",
		SongID:         "s1",
		PlayedAt:       time.Now().UTC(),
		DurationMS:     60000,
		CompletionRate: 0.79,
	})
	if err != nil {
		t.Fatalf("PublishPlayEvent() error = %v", err)
	}

	waitFor(t, "play event", func() bool { return store.playCount() == 1 })

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.playEvents[0].Completed {
		t.Error("completion rate 0.79 should not mark the play completed")
	}
}

func TestSkipEventPersisted(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil)

	_, err := svc.PublishSkipEvent(context.Background(), &SkipEventMessage{
		UserID:     "u1",
		SongID:     "s1",
		SkippedAt:  time.Now().UTC(),
		PositionMS: 15000,
	})
	if err != nil {
		t.Fatalf("PublishSkipEvent() error = %v", err)
	}

	waitFor(t, "skip event", func() bool { return store.skipCount() == 1 })
}

func TestPublishRejectsInvalidEvents(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		event PlayEventMessage
	}{
		{"missing user", PlayEventMessage{SongID: "s1", PlayedAt: time.Now(), CompletionRate: 0.5}},
		{"missing song", PlayEventMessage{UserID: "u1", PlayedAt: time.Now(), CompletionRate: 0.5}},
		{"rate above one", PlayEventMessage{UserID: "u1", SongID: "s1", PlayedAt: time.Now(), CompletionRate: 1.5}},
		{"negative duration", PlayEventMessage{UserID: "u1", SongID: "s1", PlayedAt: time.Now(), DurationMS: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.PublishPlayEvent(ctx, &tt.event); err == nil {
				t.Error("PublishPlayEvent() accepted invalid event")
			}
		})
	}
}

func TestExhaustedRetriesGoToDeadLetterStore(t *testing.T) {
	store := &fakeStore{failPlay: errors.New("song missing")}
	svc := newTestService(t, store, nil)

	_, err := svc.PublishPlayEvent(context.Background(), &PlayEventMessage{
		UserID:         "u1",
		SongID:         "missing",
		PlayedAt:       time.Now().UTC(),
		DurationMS:     1000,
		CompletionRate: 0.5,
	})
	if err != nil {
		t.Fatalf("PublishPlayEvent() error = %v", err)
	}

	waitFor(t, "dead letter record", func() bool { return store.failedCount() == 1 })

	if store.playCount() != 0 {
		t.Error("failing store should not have persisted the play")
	}
}

func TestPermanentFailureSkipsRetries(t *testing.T) {
	store := &fakeStore{failPlay: fmt.Errorf("song missing: %w", recommend.ErrNotFound)}
	svc := newTestService(t, store, nil)

	_, err := svc.PublishPlayEvent(context.Background(), &PlayEventMessage{
		UserID:         "u1",
		SongID:         "missing",
		PlayedAt:       time.Now().UTC(),
		DurationMS:     1000,
		CompletionRate: 0.5,
	})
	if err != nil {
		t.Fatalf("PublishPlayEvent() error = %v", err)
	}

	waitFor(t, "dead letter record", func() bool { return store.failedCount() == 1 })

	if got := store.attempts(); got != 1 {
		t.Errorf("insert attempts = %d, want 1 (no retries for a missing song)", got)
	}
}
