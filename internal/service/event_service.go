package service

import (
	"context"

	"engram-be/internal/pkg/logger"
	"engram-be/internal/websocket"
	"engram-be/pkg/events"
	pktNats "engram-be/pkg/nats"
)

// IEventService bridges the NATS event stream onto the websocket hub, so the
// UI learns about embedding completions, new relation suggestions and
// interrupted sessions without tight polling.
type IEventService interface {
	Listen() error
}

type eventService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewEventService(subscriber *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) IEventService {
	return &eventService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

func (s *eventService) Listen() error {
	return s.subscriber.Subscribe("events.>", "engram-ui-bridge", func(ctx context.Context, event events.Event) error {
		s.logger.Info("EventService", "event received", map[string]interface{}{
			"type": event.EventType(),
		})
		s.hub.Broadcast(event.EventType(), event.Payload())
		return nil
	})
}
