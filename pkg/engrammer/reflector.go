package engrammer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"engram-be/pkg/llm"
	"engram-be/pkg/utils"

	"github.com/google/uuid"
)

// ContextNote is a note surfaced to the reflector as grounding material.
type ContextNote struct {
	Id      string
	Title   string
	Content string
}

// ContextRetriever finds notes relevant to the query, typically by vector
// similarity over the content store.
type ContextRetriever interface {
	SearchContext(ctx context.Context, query string, limit int) ([]ContextNote, error)
}

const reflectorContextLimit = 5

type reflectorReply struct {
	Response   string `json:"response"`
	Insight    string `json:"insight"`
	References []struct {
		Source string `json:"source"`
		NoteId string `json:"noteId"`
		Title  string `json:"title"`
	} `json:"references"`
}

// NewReflectorNode builds the reflector handler. It answers the query over
// the playbook and retrieved notes, and proposes exactly one candidate
// insight for the human gate. It appends to messages and never deletes from
// the playbook.
func NewReflectorNode(provider llm.LLMProvider, retriever ContextRetriever) NodeHandler {
	return func(ctx context.Context, s State) (Update, error) {
		var contextNotes []ContextNote
		if retriever != nil {
			found, err := retriever.SearchContext(ctx, s.Query, reflectorContextLimit)
			if err == nil {
				// Retrieval failure degrades the answer but must not fail
				// the session.
				contextNotes = found
			}
		}

		prompt := buildReflectorPrompt(s, contextNotes)

		raw, err := provider.Generate(ctx, prompt, llm.WithTemperature(0.4))
		if err != nil {
			return Update{}, fmt.Errorf("reflection failed: %w", err)
		}

		reply, err := parseReflectorReply(raw)
		if err != nil {
			return Update{}, err
		}

		pending := []Insight{}
		if reply.Insight != "" {
			pending = append(pending, Insight{
				Id:      uuid.NewString(),
				Content: reply.Insight,
			})
		}

		references := make([]Reference, 0, len(reply.References))
		for _, r := range reply.References {
			if r.NoteId == "" {
				continue
			}
			source := r.Source
			if source != "playbook" {
				source = "notes"
			}
			references = append(references, Reference{
				Source: source,
				NoteId: r.NoteId,
				Title:  r.Title,
			})
		}

		return Update{
			Messages: []Message{
				{Id: uuid.NewString(), Type: "ai", Content: reply.Response},
			},
			PendingInsights: &pending,
			References:      &references,
		}, nil
	}
}

func buildReflectorPrompt(s State, contextNotes []ContextNote) string {
	var sb strings.Builder
	sb.WriteString("You are Engrammer, a reflective learning agent for a personal note graph.\n")
	sb.WriteString("Answer the user's query using the playbook strategies and the context notes below.\n")
	sb.WriteString("Then propose exactly one new insight: a reusable strategy you learned from this exchange.\n")
	sb.WriteString("Respond only with a JSON object:\n")
	sb.WriteString(`{"response": "answer for the user", "insight": "one reusable strategy", "references": [{"source": "notes", "noteId": "id", "title": "short title"}]}` + "\n")
	sb.WriteString("Cite only notes listed below. If nothing applies, use an empty references array.\n\n")

	sb.WriteString("User query:\n")
	sb.WriteString(s.Query + "\n\n")

	if len(s.Playbook) > 0 {
		sb.WriteString("Playbook:\n")
		for _, p := range s.Playbook {
			sb.WriteString(fmt.Sprintf("- (%s) %s\n", p.Id, p.Content))
		}
		sb.WriteString("\n")
	}

	if len(contextNotes) > 0 {
		sb.WriteString("Context notes:\n")
		for _, n := range contextNotes {
			sb.WriteString(fmt.Sprintf("ID: %s, Title: %s\n%s\n---\n", n.Id, n.Title, utils.Truncate(n.Content, 400)))
		}
	}

	return sb.String()
}

func parseReflectorReply(raw string) (*reflectorReply, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var reply reflectorReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, fmt.Errorf("invalid reflector JSON: %w", err)
	}
	if reply.Response == "" {
		return nil, fmt.Errorf("reflector reply missing response text")
	}
	return &reply, nil
}
