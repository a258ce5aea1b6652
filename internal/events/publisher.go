// Package events provides event publishing for analysis run lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
)

// StreamName is the Redis stream analysis events are appended to.
const StreamName = "burst-tracker:events"

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// EventType identifies an analysis lifecycle event.
type EventType string

const (
	RunStarted   EventType = "analysis.run.started"
	RunCompleted EventType = "analysis.run.completed"
	RunFailed    EventType = "analysis.run.failed"
	ResultsSaved EventType = "analysis.results.saved"
)

// Event is one analysis lifecycle notification.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher publishes analysis events to a Redis stream.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		log:    log,
	}
}

// Publish sends an event to the Redis stream.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil // No-op if publisher not configured
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]any{
			"event": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		if p.log != nil {
			p.log.Error("Failed to publish event",
				logger.String("event_type", string(event.EventType)),
				logger.String("run_id", event.RunID),
				logger.Error(publishErr),
			)
		}
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	if p.log != nil {
		p.log.Info("Published analysis event",
			logger.String("event_type", string(event.EventType)),
			logger.String("run_id", event.RunID),
			logger.String("stream_id", result.Val()),
		)
	}

	return nil
}

// PublishAsync publishes an event asynchronously.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(event Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil && p.log != nil {
			p.log.Error("Async publish failed",
				logger.String("event_type", string(event.EventType)),
				logger.String("run_id", event.RunID),
				logger.Error(err),
			)
		}
	}()
}
