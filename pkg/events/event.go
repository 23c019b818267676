package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event codes published by the enrichment pipeline and the Engrammer engine.
const (
	TypeNoteCreated        = "NOTE_CREATED"
	TypeNoteEmbedded       = "NOTE_EMBEDDED"
	TypeEnrichmentFailed   = "NOTE_ENRICHMENT_FAILED"
	TypeRelationsSuggested = "RELATIONS_SUGGESTED"
	TypeSessionInterrupted = "SESSION_INTERRUPTED"
)

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
