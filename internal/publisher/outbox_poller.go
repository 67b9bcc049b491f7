// Package publisher moves committed notifications from the outbox to Kafka.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aapiden/storefront/internal/repository"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBatchSize = 100
	defaultRetention = 7 * 24 * time.Hour
	tripAfter        = 5
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	retention    time.Duration
	batchSize    int
	repo         repository.OutboxRepository
	writer       MessageWriter
	breaker      *gobreaker.CircuitBreaker[struct{}]
	logger       *slog.Logger
}

func NewOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: time.Hour,
		retention:    defaultRetention,
		batchSize:    defaultBatchSize,
		repo:         repo,
		writer:       writer,
		breaker:      newBreaker(logger, 30*time.Second),
		logger:       logger,
	}
}

func newBreaker(logger *slog.Logger, openFor time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "kafka-notifications",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.purgeProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fetch outbox events", "error", err)
		return
	}

	// events arrive oldest first; once one of an order's events fails, its
	// later events wait for the next tick so the topic keeps their order
	blocked := make(map[string]bool)
	for _, event := range events {
		if blocked[event.AggregateId] {
			continue
		}
		if err := p.publish(ctx, event); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.logger.WarnContext(ctx, "kafka unavailable, postponing outbox batch", "pending", len(events))
				return
			}
			p.logger.ErrorContext(ctx, "failed to publish event", "event_id", event.ID, "order_id", event.AggregateId, "error", err)
			blocked[event.AggregateId] = true
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.ErrorContext(ctx, "failed to mark event as processed", "event_id", event.ID, "error", err)
		}
	}
}

// purgeProcessedEvents drops events that were published longer ago than the retention window.
func (p *OutboxPoller) purgeProcessedEvents(ctx context.Context) {
	n, err := p.repo.PurgeProcessed(ctx, time.Now().Add(-p.retention))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to purge outbox", "error", err)
		return
	}
	if n > 0 {
		p.logger.InfoContext(ctx, "outbox purged", "events", n)
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // order id keeps one order's events in order
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}
