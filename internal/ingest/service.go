// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/lequangdung2005/melodex/internal/config"
	"github.com/lequangdung2005/melodex/internal/metrics"
	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// Store persists events. Implemented by the database layer.
type Store interface {
	InsertPlayEvent(ctx context.Context, event *models.PlayEvent) error
	InsertSkipEvent(ctx context.Context, event *models.SkipEvent) error
	InsertFailedEvent(ctx context.Context, id, topic string, payload []byte, reason string) error
}

// CacheInvalidator drops cached recommendations after a user's
// listening history changes.
type CacheInvalidator interface {
	InvalidateUser(userID string)
}

// Service runs the event pipeline: an in-process pub/sub, a router with
// retry and poison queue middleware, and handlers that persist events.
type Service struct {
	pubsub  *gochannel.GoChannel
	router  *message.Router
	store   Store
	cache   CacheInvalidator
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

// NewService builds the pipeline. The cache invalidator may be nil when
// no recommendation cache is attached.
func NewService(cfg *config.IngestConfig, store Store, cache CacheInvalidator, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ingest: store is required")
	}

	wmLogger := NewWatermillLogger(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	s := &Service{
		pubsub: pubsub,
		router: router,
		store:  store,
		cache:  cache,
		breaker: newBreaker(BreakerConfig{
			Name:             "event-store",
			FailureThreshold: cfg.BreakerMaxFailures,
			Timeout:          cfg.BreakerTimeout,
		}, logger),
		logger: logger,
	}

	// Middleware order: panics become errors, transient failures are
	// retried with backoff, exhausted messages land on the poison topic.
	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	poisonQueue, err := middleware.PoisonQueue(pubsub, cfg.PoisonQueueTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	router.AddMiddleware(poisonQueue)

	router.AddConsumerHandler("play-events", TopicPlayEvents, pubsub, s.handlePlay)
	router.AddConsumerHandler("skip-events", TopicSkipEvents, pubsub, s.handleSkip)
	router.AddConsumerHandler("poison-events", cfg.PoisonQueueTopic, pubsub, s.handlePoison)

	return s, nil
}

// PublishPlayEvent validates and enqueues a play event, returning the
// assigned event id. Validation failures are reported synchronously so
// callers can reject bad input before it enters the pipeline.
func (s *Service) PublishPlayEvent(ctx context.Context, event *PlayEventMessage) (string, error) {
	if err := validate.Struct(event); err != nil {
		return "", fmt.Errorf("%w: invalid play event: %v", recommend.ErrInvalidInput, err)
	}
	return s.publish(ctx, TopicPlayEvents, event)
}

// PublishSkipEvent validates and enqueues a skip event, returning the
// assigned event id.
func (s *Service) PublishSkipEvent(ctx context.Context, event *SkipEventMessage) (string, error) {
	if err := validate.Struct(event); err != nil {
		return "", fmt.Errorf("%w: invalid skip event: %v", recommend.ErrInvalidInput, err)
	}
	return s.publish(ctx, TopicSkipEvents, event)
}

// publish enqueues the event. The message ignores the caller's context
// so persistence is not cut short when an HTTP request ends.
func (s *Service) publish(_ context.Context, topic string, event any) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.pubsub.Publish(topic, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()

	return msg.UUID, nil
}

func (s *Service) handlePlay(msg *message.Message) error {
	event, err := decodePlayEvent(msg.Payload)
	if err != nil {
		return s.quarantine(msg, TopicPlayEvents, err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.store.InsertPlayEvent(msg.Context(), event.ToModel(msg.UUID))
	})
	if err != nil {
		if isPermanent(err) {
			return s.quarantine(msg, TopicPlayEvents, err)
		}
		return fmt.Errorf("persist play event %s: %w", msg.UUID, err)
	}

	if s.cache != nil {
		s.cache.InvalidateUser(event.UserID)
	}
	metrics.EventsProcessed.WithLabelValues(TopicPlayEvents).Inc()

	s.logger.Debug().
		Str("event_id", msg.UUID).
		Str("user_id", event.UserID).
		Str("song_id", event.SongID).
		Msg("play event persisted")

	return nil
}

func (s *Service) handleSkip(msg *message.Message) error {
	event, err := decodeSkipEvent(msg.Payload)
	if err != nil {
		return s.quarantine(msg, TopicSkipEvents, err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.store.InsertSkipEvent(msg.Context(), event.ToModel(msg.UUID))
	})
	if err != nil {
		if isPermanent(err) {
			return s.quarantine(msg, TopicSkipEvents, err)
		}
		return fmt.Errorf("persist skip event %s: %w", msg.UUID, err)
	}

	if s.cache != nil {
		s.cache.InvalidateUser(event.UserID)
	}
	metrics.EventsProcessed.WithLabelValues(TopicSkipEvents).Inc()

	s.logger.Debug().
		Str("event_id", msg.UUID).
		Str("user_id", event.UserID).
		Str("song_id", event.SongID).
		Msg("skip event persisted")

	return nil
}

// isPermanent reports whether a persistence failure can never succeed
// on retry, such as a validation rejection or a missing song.
func isPermanent(err error) bool {
	return errors.Is(err, recommend.ErrInvalidInput) || errors.Is(err, recommend.ErrNotFound)
}

// quarantine moves a message that can never be processed straight to
// the dead letter store instead of burning retries on it. If recording
// the row fails the error goes back to the router so retry and the
// poison queue still apply.
func (s *Service) quarantine(msg *message.Message, topic string, cause error) error {
	err := s.store.InsertFailedEvent(msg.Context(), uuid.NewString(), topic, msg.Payload, cause.Error())
	if err != nil {
		return fmt.Errorf("quarantine event %s: %w", msg.UUID, err)
	}
	metrics.EventsPoisoned.WithLabelValues(topic).Inc()

	s.logger.Warn().
		Str("event_id", msg.UUID).
		Str("topic", topic).
		Err(cause).
		Msg("event quarantined")

	return nil
}

// handlePoison records exhausted messages in the dead letter table. The
// row id is fresh so replayed poison messages never collide.
func (s *Service) handlePoison(msg *message.Message) error {
	reason := msg.Metadata.Get(middleware.ReasonForPoisonedKey)
	topic := msg.Metadata.Get(middleware.PoisonedTopicKey)

	err := s.store.InsertFailedEvent(msg.Context(), uuid.NewString(), topic, msg.Payload, reason)
	if err != nil {
		return fmt.Errorf("record failed event %s: %w", msg.UUID, err)
	}
	metrics.EventsPoisoned.WithLabelValues(topic).Inc()

	s.logger.Warn().
		Str("event_id", msg.UUID).
		Str("topic", topic).
		Str("reason", reason).
		Msg("event moved to dead letter store")

	return nil
}

// Run starts the router and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	return s.router.Run(ctx)
}

// Running returns a channel that closes once the router is running.
func (s *Service) Running() <-chan struct{} {
	return s.router.Running()
}

// BreakerState reports the circuit breaker state for health checks.
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// Close stops the router and the pub/sub, waiting up to the configured
// close timeout for in-flight messages.
func (s *Service) Close() error {
	if err := s.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return s.pubsub.Close()
}
