package repository

import (
	"context"

	"github.com/user/profile-extractor/internal/entity"
)

// EventPublisher relays progress events to out-of-process subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.ProgressEvent) error
	// History returns the events published for a run, oldest first.
	History(ctx context.Context, runID string) ([]entity.ProgressEvent, error)
}
