package enrichment

import (
	"context"
	"fmt"
)

// MaxSuggestions caps how many connections one suggestion pass may propose.
const MaxSuggestions = 3

// NoteInput is the provider-agnostic view of a note handed to the AI boundary.
type NoteInput struct {
	Id      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Suggestion is one proposed connection between the analyzed note and an
// existing note.
type Suggestion struct {
	TargetNoteId string `json:"targetNoteId"`
	Reasoning    string `json:"reasoning"`
}

// EmbedResult carries the embedding vector and, when the content required
// captioning first (image/audio), the generated caption.
type EmbedResult struct {
	Embedding []float32
	Caption   string
}

// Client is the enrichment boundary consumed by the background workers and
// the callable AI endpoints.
type Client interface {
	// EmbedNote embeds the content. Image mime types are captioned first and
	// the caption is embedded.
	EmbedNote(ctx context.Context, content string, mimeType string) (*EmbedResult, error)

	// SuggestConnections proposes up to MaxSuggestions connections from note
	// to the context notes.
	SuggestConnections(ctx context.Context, note NoteInput, contextNotes []NoteInput) ([]Suggestion, error)
}

// ValidateSuggestions rejects a suggestion set containing empty fields or
// unknown targets. An invalid set fails as a whole; callers must not persist
// a partial batch.
func ValidateSuggestions(suggestions []Suggestion, knownTargets map[string]bool) error {
	if len(suggestions) > MaxSuggestions {
		return fmt.Errorf("suggestion set exceeds limit of %d", MaxSuggestions)
	}
	for i, s := range suggestions {
		if s.TargetNoteId == "" {
			return fmt.Errorf("suggestion %d has empty targetNoteId", i)
		}
		if s.Reasoning == "" {
			return fmt.Errorf("suggestion %d has empty reasoning", i)
		}
		if knownTargets != nil && !knownTargets[s.TargetNoteId] {
			return fmt.Errorf("suggestion %d references unknown note %s", i, s.TargetNoteId)
		}
	}
	return nil
}
