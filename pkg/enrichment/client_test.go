package enrichment

import (
	"context"
	"errors"
	"testing"

	"engram-be/pkg/embedding"
	"engram-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	lastText     string
	lastTaskType string
	err          error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	s.lastText = text
	s.lastTaskType = taskType
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingValues{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

// captioningLLM stubs a provider that supports both text generation and media
// captioning, like the Gemini provider.
type captioningLLM struct {
	reply      string
	caption    string
	captionErr error
}

func (s *captioningLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.reply, nil
}

func (s *captioningLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.reply, nil
}

func (s *captioningLLM) Caption(ctx context.Context, dataBase64 string, mimeType string, prompt string) (string, error) {
	return s.caption, s.captionErr
}

// textOnlyLLM cannot caption.
type textOnlyLLM struct {
	reply string
}

func (s *textOnlyLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.reply, nil
}

func (s *textOnlyLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.reply, nil
}

func TestEmbedNoteText(t *testing.T) {
	embedder := &stubEmbedder{}
	client := NewAIClient(embedder, &textOnlyLLM{})

	result, err := client.EmbedNote(context.Background(), "a short note", "text/plain")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, result.Embedding)
	assert.Empty(t, result.Caption)
	assert.Equal(t, "a short note", embedder.lastText)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", embedder.lastTaskType)
}

func TestEmbedNoteLongTextIsCapped(t *testing.T) {
	embedder := &stubEmbedder{}
	client := NewAIClient(embedder, &textOnlyLLM{})

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}

	_, err := client.EmbedNote(context.Background(), string(long), "text/plain")
	require.NoError(t, err)
	assert.Len(t, embedder.lastText, 1500)
}

func TestEmbedNoteImageCaptionsFirst(t *testing.T) {
	embedder := &stubEmbedder{}
	client := NewAIClient(embedder, &captioningLLM{caption: "a whiteboard with a project plan"})

	result, err := client.EmbedNote(context.Background(), "base64data", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "a whiteboard with a project plan", result.Caption)
	// The caption, not the raw payload, is what gets embedded.
	assert.Equal(t, "a whiteboard with a project plan", embedder.lastText)
}

func TestEmbedNoteImageWithoutCaptioner(t *testing.T) {
	client := NewAIClient(&stubEmbedder{}, &textOnlyLLM{})

	_, err := client.EmbedNote(context.Background(), "base64data", "image/png")
	assert.Error(t, err)
}

func TestEmbedNoteCaptionFailure(t *testing.T) {
	client := NewAIClient(&stubEmbedder{}, &captioningLLM{captionErr: errors.New("vision model down")})

	_, err := client.EmbedNote(context.Background(), "base64data", "audio/mpeg")
	assert.Error(t, err)
}

func TestSuggestConnectionsWithoutContext(t *testing.T) {
	client := NewAIClient(&stubEmbedder{}, &textOnlyLLM{})

	suggestions, err := client.SuggestConnections(context.Background(), NoteInput{Id: "n1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestConnectionsParsesReply(t *testing.T) {
	provider := &textOnlyLLM{reply: "```json\n[{\"targetNoteId\": \"n2\", \"reasoning\": \"both about planning\"}]\n```"}
	client := NewAIClient(&stubEmbedder{}, provider)

	suggestions, err := client.SuggestConnections(
		context.Background(),
		NoteInput{Id: "n1", Type: "text", Content: "plan the week"},
		[]NoteInput{{Id: "n2", Type: "text", Content: "weekly review"}},
	)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "n2", suggestions[0].TargetNoteId)
	assert.Equal(t, "both about planning", suggestions[0].Reasoning)
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `[{"targetNoteId": "a", "reasoning": "r"}]`,
			want: 1,
		},
		{
			name: "json fence",
			raw:  "```json\n[{\"targetNoteId\": \"a\", \"reasoning\": \"r\"}]\n```",
			want: 1,
		},
		{
			name: "bare fence",
			raw:  "```\n[]\n```",
			want: 0,
		},
		{
			name: "empty array",
			raw:  "[]",
			want: 0,
		},
		{
			name:    "prose instead of json",
			raw:     "Here are the connections I found:",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestions(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestValidateSuggestions(t *testing.T) {
	known := map[string]bool{"n1": true, "n2": true, "n3": true}

	tests := []struct {
		name        string
		suggestions []Suggestion
		wantErr     bool
	}{
		{
			name:        "empty set is valid",
			suggestions: []Suggestion{},
		},
		{
			name: "valid set",
			suggestions: []Suggestion{
				{TargetNoteId: "n1", Reasoning: "related"},
				{TargetNoteId: "n2", Reasoning: "also related"},
			},
		},
		{
			name: "exceeds limit",
			suggestions: []Suggestion{
				{TargetNoteId: "n1", Reasoning: "r"},
				{TargetNoteId: "n2", Reasoning: "r"},
				{TargetNoteId: "n3", Reasoning: "r"},
				{TargetNoteId: "n1", Reasoning: "r"},
			},
			wantErr: true,
		},
		{
			name:        "empty target",
			suggestions: []Suggestion{{TargetNoteId: "", Reasoning: "r"}},
			wantErr:     true,
		},
		{
			name:        "empty reasoning",
			suggestions: []Suggestion{{TargetNoteId: "n1", Reasoning: ""}},
			wantErr:     true,
		},
		{
			name:        "hallucinated target",
			suggestions: []Suggestion{{TargetNoteId: "ghost", Reasoning: "r"}},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSuggestions(tt.suggestions, known)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
