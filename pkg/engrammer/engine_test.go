package engrammer

import (
	"context"
	"errors"
	"testing"
	"time"

	"engram-be/pkg/aigate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insightReflector is a stub reflector emitting one answer and one candidate
// insight per run, the shape a real session takes through the human gate.
func insightReflector(answer, insight string) NodeHandler {
	return func(ctx context.Context, s State) (Update, error) {
		pending := []Insight{{Id: "insight-1", Content: insight}}
		refs := []Reference{{Source: "notes", NoteId: "note-1", Title: "Context"}}
		return Update{
			Messages:        []Message{{Id: "ai-1", Type: "ai", Content: answer}},
			PendingInsights: &pending,
			References:      &refs,
		}, nil
	}
}

func plainReflector(answer string) NodeHandler {
	return func(ctx context.Context, s State) (Update, error) {
		empty := []Insight{}
		return Update{
			Messages:        []Message{{Id: "ai-1", Type: "ai", Content: answer}},
			PendingInsights: &empty,
		}, nil
	}
}

func failingReflector(cause error) NodeHandler {
	return func(ctx context.Context, s State) (Update, error) {
		return Update{}, cause
	}
}

func newTestEngine(reflector NodeHandler) (*Engine, *MemoryCheckpointer) {
	checkpoints := NewMemoryCheckpointer()
	engine := NewEngine(NewGraph(reflector), checkpoints, nil, aigate.New(), nil)
	return engine, checkpoints
}

// waitForSettled polls until the background run leaves the running status.
func waitForSettled(t *testing.T, engine *Engine, threadID string) *SessionState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := engine.GetState(context.Background(), threadID)
		require.NoError(t, err)
		if state.Status != StatusRunning {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session never settled")
	return nil
}

func TestStartRejectsEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(plainReflector("answer"))

	_, err := engine.Start(context.Background(), "", "")
	assert.Error(t, err)
}

func TestStartGeneratesThreadId(t *testing.T) {
	engine, _ := newTestEngine(plainReflector("answer"))

	threadID, err := engine.Start(context.Background(), "how do I plan my week?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, threadID)
}

func TestStartWithInsightInterruptsAtCurator(t *testing.T) {
	engine, checkpoints := newTestEngine(insightReflector("here is my answer", "batch similar tasks"))

	threadID, err := engine.Start(context.Background(), "how do I plan my week?", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", threadID)

	state := waitForSettled(t, engine, threadID)

	assert.Equal(t, StatusInterrupted, state.Status)
	assert.Equal(t, "here is my answer", state.LatestResponse)
	require.Len(t, state.PendingInsights, 1)
	assert.Equal(t, "batch similar tasks", state.PendingInsights[0].Content)
	require.Len(t, state.References, 1)
	assert.Equal(t, "notes", state.References[0].Source)

	cp, err := checkpoints.Get(context.Background(), threadID)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{NodeCurator}, cp.Next)
}

func TestStartWithoutInsightRunsToCompletion(t *testing.T) {
	engine, _ := newTestEngine(plainReflector("nothing new to learn"))

	threadID, err := engine.Start(context.Background(), "what did I write yesterday?", "")
	require.NoError(t, err)

	state := waitForSettled(t, engine, threadID)

	assert.Equal(t, StatusDone, state.Status)
	assert.Equal(t, "nothing new to learn", state.LatestResponse)
	assert.Empty(t, state.PendingInsights)
}

func TestApproveCommitsInsightToPlaybook(t *testing.T) {
	engine, checkpoints := newTestEngine(insightReflector("answer", "review notes weekly"))

	threadID, err := engine.Start(context.Background(), "query", "t-approve")
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	state, err := engine.Continue(context.Background(), threadID, ApproveToken)
	require.NoError(t, err)

	assert.Equal(t, StatusDone, state.Status)
	assert.Empty(t, state.PendingInsights)

	cp, err := checkpoints.Get(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, cp.State.Playbook, 1)
	assert.Equal(t, "review notes weekly", cp.State.Playbook[0].Content)
	assert.Empty(t, cp.Next)
}

func TestRejectDiscardsInsightAndEndsSession(t *testing.T) {
	engine, checkpoints := newTestEngine(insightReflector("answer", "discarded strategy"))

	threadID, err := engine.Start(context.Background(), "query", "t-reject")
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	state, err := engine.Continue(context.Background(), threadID, "no thanks")
	require.NoError(t, err)

	assert.Equal(t, StatusDone, state.Status)
	assert.Empty(t, state.PendingInsights)

	cp, err := checkpoints.Get(context.Background(), threadID)
	require.NoError(t, err)
	assert.Empty(t, cp.State.Playbook)

	last := cp.State.Messages[len(cp.State.Messages)-1]
	assert.Equal(t, "human", last.Type)
	assert.Equal(t, "User rejected insights.", last.Content)
}

func TestContinueRequiresInterruptedSession(t *testing.T) {
	engine, _ := newTestEngine(plainReflector("answer"))

	threadID, err := engine.Start(context.Background(), "query", "t-done")
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	_, err = engine.Continue(context.Background(), threadID, ApproveToken)
	assert.ErrorIs(t, err, ErrNotInterrupted)
}

func TestContinueUnknownThread(t *testing.T) {
	engine, _ := newTestEngine(plainReflector("answer"))

	_, err := engine.Continue(context.Background(), "no-such-thread", ApproveToken)
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestReflectorFailureSurfacesAsErrorStatus(t *testing.T) {
	engine, _ := newTestEngine(failingReflector(errors.New("model unavailable")))

	threadID, err := engine.Start(context.Background(), "query", "t-fail")
	require.NoError(t, err)

	state := waitForSettled(t, engine, threadID)

	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.Error, "model unavailable")
}

func TestStartResumesExistingSessionState(t *testing.T) {
	engine, checkpoints := newTestEngine(insightReflector("answer", "first insight"))

	threadID, err := engine.Start(context.Background(), "first query", "t-resume")
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	_, err = engine.Continue(context.Background(), threadID, ApproveToken)
	require.NoError(t, err)

	_, err = engine.Start(context.Background(), "second query", threadID)
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	cp, err := checkpoints.Get(context.Background(), threadID)
	require.NoError(t, err)

	// Playbook from the first round survives, and both human turns are kept.
	assert.Len(t, cp.State.Playbook, 1)
	assert.Equal(t, "second query", cp.State.Query)

	var humanTurns []string
	for _, m := range cp.State.Messages {
		if m.Type == "human" {
			humanTurns = append(humanTurns, m.Content)
		}
	}
	assert.Contains(t, humanTurns, "first query")
	assert.Contains(t, humanTurns, "second query")
}

func TestFindPlaybookInsight(t *testing.T) {
	engine, checkpoints := newTestEngine(plainReflector("answer"))

	require.NoError(t, checkpoints.Put(context.Background(), &Checkpoint{
		ThreadID: "t-1",
		State: State{Playbook: []Insight{
			{Id: "ins-1", Content: "strategy"},
		}},
	}))

	found, err := engine.FindPlaybookInsight(context.Background(), "ins-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "strategy", found.Content)

	missing, err := engine.FindPlaybookInsight(context.Background(), "ins-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEngineReleasesGateAfterRun(t *testing.T) {
	gate := aigate.New()
	engine := NewEngine(NewGraph(plainReflector("answer")), NewMemoryCheckpointer(), nil, gate, nil)

	threadID, err := engine.Start(context.Background(), "query", "")
	require.NoError(t, err)
	waitForSettled(t, engine, threadID)

	// The release runs just after the final checkpoint write lands.
	assert.Eventually(t, func() bool { return !gate.Busy() }, time.Second, 10*time.Millisecond)
}
