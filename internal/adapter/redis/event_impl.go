package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/profile-extractor/internal/entity"
)

const (
	eventChannelPrefix = "profile:events:"
	eventHistoryPrefix = "profile:history:"
)

// EventChannel is the pub/sub channel a run's events are published on.
func EventChannel(runID string) string { return eventChannelPrefix + runID }

func historyKey(runID string) string { return eventHistoryPrefix + runID }

// EventPublisherImpl relays progress events over Redis pub/sub and keeps a
// per-run history list so late subscribers can replay a run.
type EventPublisherImpl struct {
	client     *redis.Client
	historyTTL time.Duration
}

// NewEventPublisher creates a new instance of EventPublisherImpl.
func NewEventPublisher(client *redis.Client, historyTTL time.Duration) *EventPublisherImpl {
	return &EventPublisherImpl{client: client, historyTTL: historyTTL}
}

// Publish appends the event to the run's history and publishes it.
func (r *EventPublisherImpl) Publish(ctx context.Context, event entity.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := historyKey(event.RunID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if r.historyTTL > 0 {
		pipe.Expire(ctx, key, r.historyTTL)
	}
	pipe.Publish(ctx, EventChannel(event.RunID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event for run %s: %w", event.RunID, err)
	}
	return nil
}

// History returns the events recorded for runID, oldest first. An unknown
// run yields an empty slice.
func (r *EventPublisherImpl) History(ctx context.Context, runID string) ([]entity.ProgressEvent, error) {
	raw, err := r.client.LRange(ctx, historyKey(runID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]entity.ProgressEvent, 0, len(raw))
	for _, item := range raw {
		var ev entity.ProgressEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("decode event of run %s: %w", runID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
