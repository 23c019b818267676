package service

import (
	"context"
	"time"

	"engram-be/pkg/engrammer"
	"engram-be/pkg/events"
	pktNats "engram-be/pkg/nats"
)

// EventingCheckpointer decorates a Checkpointer and announces the moment a
// session reaches the human gate, so the UI can react without blind polling.
type EventingCheckpointer struct {
	inner     engrammer.Checkpointer
	publisher *pktNats.Publisher
}

var _ engrammer.Checkpointer = &EventingCheckpointer{}

func NewEventingCheckpointer(inner engrammer.Checkpointer, publisher *pktNats.Publisher) *EventingCheckpointer {
	return &EventingCheckpointer{
		inner:     inner,
		publisher: publisher,
	}
}

func (e *EventingCheckpointer) Get(ctx context.Context, threadID string) (*engrammer.Checkpoint, error) {
	return e.inner.Get(ctx, threadID)
}

func (e *EventingCheckpointer) Put(ctx context.Context, checkpoint *engrammer.Checkpoint) error {
	var wasInterrupted bool
	if prev, err := e.inner.Get(ctx, checkpoint.ThreadID); err == nil {
		wasInterrupted = prev.DeriveStatus() == engrammer.StatusInterrupted
	}

	if err := e.inner.Put(ctx, checkpoint); err != nil {
		return err
	}

	if e.publisher != nil && !wasInterrupted && checkpoint.DeriveStatus() == engrammer.StatusInterrupted {
		evt := events.BaseEvent{
			Type: events.TypeSessionInterrupted,
			Data: map[string]interface{}{
				"thread_id":        checkpoint.ThreadID,
				"pending_insights": len(checkpoint.State.PendingInsights),
			},
			OccurredAt: time.Now(),
		}
		// Best effort only
		_ = e.publisher.Publish(ctx, evt)
	}

	return nil
}

func (e *EventingCheckpointer) List(ctx context.Context) ([]*engrammer.Checkpoint, error) {
	return e.inner.List(ctx)
}
