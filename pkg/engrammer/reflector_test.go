package engrammer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"engram-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.lastPrompt = prompt
	return s.reply, s.err
}

type stubRetriever struct {
	notes []ContextNote
	err   error
}

func (s *stubRetriever) SearchContext(ctx context.Context, query string, limit int) ([]ContextNote, error) {
	return s.notes, s.err
}

func TestReflectorNodeProposesInsight(t *testing.T) {
	provider := &stubLLM{reply: `{
		"response": "Focus on one project at a time.",
		"insight": "User prefers sequential focus.",
		"references": [{"source": "notes", "noteId": "n1", "title": "Focus note"}]
	}`}
	retriever := &stubRetriever{notes: []ContextNote{
		{Id: "n1", Title: "Focus note", Content: "deep work beats multitasking"},
	}}

	node := NewReflectorNode(provider, retriever)
	update, err := node(context.Background(), State{Query: "how should I work?"})
	require.NoError(t, err)

	require.Len(t, update.Messages, 1)
	assert.Equal(t, "ai", update.Messages[0].Type)
	assert.Equal(t, "Focus on one project at a time.", update.Messages[0].Content)

	require.NotNil(t, update.PendingInsights)
	require.Len(t, *update.PendingInsights, 1)
	insight := (*update.PendingInsights)[0]
	assert.NotEmpty(t, insight.Id)
	assert.Equal(t, "User prefers sequential focus.", insight.Content)

	require.NotNil(t, update.References)
	require.Len(t, *update.References, 1)
	assert.Equal(t, "n1", (*update.References)[0].NoteId)

	// Retrieved notes land in the prompt.
	assert.Contains(t, provider.lastPrompt, "deep work beats multitasking")
}

func TestReflectorNodeWithoutInsight(t *testing.T) {
	provider := &stubLLM{reply: `{"response": "Nothing new here.", "insight": "", "references": []}`}

	node := NewReflectorNode(provider, &stubRetriever{})
	update, err := node(context.Background(), State{Query: "q"})
	require.NoError(t, err)

	require.NotNil(t, update.PendingInsights)
	assert.Empty(t, *update.PendingInsights)
}

func TestReflectorNodeSurvivesRetrievalFailure(t *testing.T) {
	provider := &stubLLM{reply: `{"response": "Answered without context.", "insight": "", "references": []}`}
	retriever := &stubRetriever{err: errors.New("vector store down")}

	node := NewReflectorNode(provider, retriever)
	update, err := node(context.Background(), State{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Answered without context.", update.Messages[0].Content)
}

func TestReflectorNodePropagatesProviderFailure(t *testing.T) {
	provider := &stubLLM{err: errors.New("model unavailable")}

	node := NewReflectorNode(provider, &stubRetriever{})
	_, err := node(context.Background(), State{Query: "q"})
	assert.Error(t, err)
}

func TestReflectorNodeNormalizesReferences(t *testing.T) {
	provider := &stubLLM{reply: `{
		"response": "ok",
		"insight": "",
		"references": [
			{"source": "playbook", "noteId": "p1", "title": "Old strategy"},
			{"source": "garbage", "noteId": "n1", "title": "Note"},
			{"source": "notes", "noteId": "", "title": "No id"}
		]
	}`}

	node := NewReflectorNode(provider, &stubRetriever{})
	update, err := node(context.Background(), State{Query: "q"})
	require.NoError(t, err)

	require.NotNil(t, update.References)
	refs := *update.References
	require.Len(t, refs, 2)
	assert.Equal(t, "playbook", refs[0].Source)
	assert.Equal(t, "notes", refs[1].Source)
}

func TestParseReflectorReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    string
	}{
		{
			name: "plain json",
			raw:  `{"response": "hello", "insight": "x"}`,
			want: "hello",
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"response\": \"fenced\", \"insight\": \"\"}\n```",
			want: "fenced",
		},
		{
			name: "bare fence",
			raw:  "```\n{\"response\": \"bare\", \"insight\": \"\"}\n```",
			want: "bare",
		},
		{
			name:    "missing response",
			raw:     `{"insight": "only insight"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I cannot answer in JSON, sorry.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := parseReflectorReply(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Response)
		})
	}
}

func TestBuildReflectorPromptIncludesPlaybook(t *testing.T) {
	state := State{
		Query:    "how should I plan?",
		Playbook: []Insight{{Id: "p1", Content: "batch similar tasks"}},
	}

	prompt := buildReflectorPrompt(state, nil)

	assert.True(t, strings.Contains(prompt, "batch similar tasks"))
	assert.True(t, strings.Contains(prompt, "how should I plan?"))
}
