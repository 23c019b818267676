package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"engram-be/pkg/embedding"
	"engram-be/pkg/llm"
	"engram-be/pkg/utils"
)

const captionPrompt = "Describe this image concisely for the purpose of finding related notes."

// contextContentLimit keeps the connection prompt within model context limits.
const contextContentLimit = 400

// AIClient implements Client on top of the configured embedding and LLM
// providers. It is constructed once at startup and injected; there is no
// lazy per-request initialization.
type AIClient struct {
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
}

var _ Client = &AIClient{}

func NewAIClient(embeddingProvider embedding.EmbeddingProvider, llmProvider llm.LLMProvider) *AIClient {
	return &AIClient{
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
	}
}

func (c *AIClient) EmbedNote(ctx context.Context, content string, mimeType string) (*EmbedResult, error) {
	if strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "audio/") {
		captioner, ok := c.llmProvider.(llm.Captioner)
		if !ok {
			return nil, fmt.Errorf("configured LLM provider cannot caption %s content", mimeType)
		}

		// 1. Generate a caption for the media
		caption, err := captioner.Caption(ctx, content, mimeType, captionPrompt)
		if err != nil {
			return nil, fmt.Errorf("caption generation failed: %w", err)
		}
		if caption == "" {
			return nil, fmt.Errorf("caption generation returned empty text")
		}

		// 2. Embed the generated caption
		res, err := c.embeddingProvider.Generate(caption, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		return &EmbedResult{Embedding: res.Embedding.Values, Caption: caption}, nil
	}

	// Text content is embedded directly. Very long notes are capped to the
	// first chunk; the vector is per-note, not per-chunk.
	chunks := utils.SplitText(content, 1500, 0)
	res, err := c.embeddingProvider.Generate(chunks[0], "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}
	return &EmbedResult{Embedding: res.Embedding.Values}, nil
}

func (c *AIClient) SuggestConnections(ctx context.Context, note NoteInput, contextNotes []NoteInput) ([]Suggestion, error) {
	if len(contextNotes) == 0 {
		return []Suggestion{}, nil
	}

	prompt := buildConnectionPrompt(note, contextNotes)

	raw, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	suggestions, err := ParseSuggestions(raw)
	if err != nil {
		return nil, err
	}

	return suggestions, nil
}

func buildConnectionPrompt(note NoteInput, contextNotes []NoteInput) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant that helps find connections between notes.\n")
	sb.WriteString("Given a new note and a list of existing context notes, identify up to 3 strong connections.\n")
	sb.WriteString("For each connection, provide the ID of the target note and a concise reasoning.\n")
	sb.WriteString("Respond only with a JSON array of objects, like this:\n")
	sb.WriteString(`[{"targetNoteId": "uuid-of-target-note", "reasoning": "Concise reason for connection."}]` + "\n")
	sb.WriteString("If no connections are found, return an empty array.\n\n")
	sb.WriteString(fmt.Sprintf("New Note (ID: %s, Type: %s):\n%s\n\n", note.Id, note.Type, note.Content))
	sb.WriteString("Context Notes:\n")
	for _, n := range contextNotes {
		sb.WriteString(fmt.Sprintf("ID: %s, Type: %s\nContent: %s\n---\n", n.Id, n.Type, utils.Truncate(n.Content, contextContentLimit)))
	}
	return sb.String()
}

// ParseSuggestions decodes the model's JSON reply, tolerating markdown code
// fences around the array.
func ParseSuggestions(raw string) ([]Suggestion, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(cleaned), &suggestions); err != nil {
		return nil, fmt.Errorf("invalid suggestion JSON: %w", err)
	}
	return suggestions, nil
}
