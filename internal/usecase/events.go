package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
)

// EventSink receives a run's progress events in emission order. Emit is
// called from the orchestrator's goroutine only.
type EventSink interface {
	Emit(ctx context.Context, event entity.ProgressEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, event entity.ProgressEvent)

func (f SinkFunc) Emit(ctx context.Context, event entity.ProgressEvent) { f(ctx, event) }

// MultiSink forwards every event to each sink in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ctx context.Context, event entity.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}

type discardSink struct{}

func (discardSink) Emit(context.Context, entity.ProgressEvent) {}

// PublishingSink relays events to an EventPublisher. Publish failures are
// logged and never reach the run.
type PublishingSink struct {
	publisher repository.EventPublisher
	logger    *zap.Logger
}

func NewPublishingSink(publisher repository.EventPublisher, logger *zap.Logger) *PublishingSink {
	return &PublishingSink{publisher: publisher, logger: logger}
}

func (s *PublishingSink) Emit(ctx context.Context, event entity.ProgressEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish progress event",
			zap.String("run_id", event.RunID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
