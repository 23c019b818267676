package dto

import "github.com/google/uuid"

// PublishEmbedNoteMessage is the wake-up payload for the embedding worker.
type PublishEmbedNoteMessage struct {
	NoteId uuid.UUID `json:"note_id"`
}
