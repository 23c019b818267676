package engrammer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"engram-be/pkg/aigate"

	"github.com/google/uuid"
)

// ApproveToken is the continue input that approves the pending insights.
// Anything else is treated as a rejection.
const ApproveToken = "approve_learning"

const rejectedMessage = "User rejected insights."

// ErrNotInterrupted is returned when continue is called on a session that is
// not waiting at the human gate.
var ErrNotInterrupted = errors.New("session is not awaiting approval")

// Logger is the subset of the application logger the engine needs.
type Logger interface {
	Info(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// RunTracker records which threads have a live background run. It exists for
// observability; correctness comes from the per-thread locks and checkpoints.
type RunTracker interface {
	MarkRunning(threadID string)
	ClearRunning(threadID string)
	IsRunning(threadID string) bool
}

// SessionState is the polled view of a session.
type SessionState struct {
	Status          Status      `json:"status"`
	LatestResponse  string      `json:"latestResponse"`
	PendingInsights []Insight   `json:"pendingInsights"`
	References      []Reference `json:"references"`
	Error           string      `json:"error,omitempty"`
}

// Engine drives graph runs over checkpointed sessions. Start is
// fire-and-forget; Continue is synchronous. Operations on the same thread
// are serialized by a per-thread mutex.
type Engine struct {
	graph       *Graph
	checkpoints Checkpointer
	runs        RunTracker
	gate        *aigate.Gate
	logger      Logger
	gateWait    time.Duration

	locks sync.Map // threadID -> *sync.Mutex
}

func NewEngine(graph *Graph, checkpoints Checkpointer, runs RunTracker, gate *aigate.Gate, logger Logger) *Engine {
	return &Engine{
		graph:       graph,
		checkpoints: checkpoints,
		runs:        runs,
		gate:        gate,
		logger:      logger,
		gateWait:    2 * time.Minute,
	}
}

func (e *Engine) threadLock(threadID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Start seeds a session with the query and a human message, checkpoints it
// with the graph entry pending, and launches the run in the background. The
// returned threadId is available immediately; callers poll GetState for
// progress. Passing an existing threadId resumes that session's state with a
// fresh run.
func (e *Engine) Start(ctx context.Context, query string, threadID string) (string, error) {
	if query == "" {
		return "", errors.New("query must not be empty")
	}
	if threadID == "" {
		threadID = uuid.NewString()
	}

	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	state := State{}
	if existing, err := e.checkpoints.Get(ctx, threadID); err == nil {
		state = existing.State
	} else if !errors.Is(err, ErrCheckpointNotFound) {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}

	state = state.Apply(Update{
		Query: query,
		Messages: []Message{
			{Id: uuid.NewString(), Type: "human", Content: query},
		},
	})

	cp := &Checkpoint{
		ThreadID: threadID,
		State:    state,
		Next:     []NodeID{e.graph.Entry()},
	}
	if err := e.checkpoints.Put(ctx, cp); err != nil {
		return "", fmt.Errorf("save checkpoint: %w", err)
	}

	if e.runs != nil {
		e.runs.MarkRunning(threadID)
	}
	go e.run(threadID)

	return threadID, nil
}

// run executes the pending graph nodes for a thread. Failures are captured
// into the checkpoint so polling surfaces status=error instead of a silently
// stuck session.
func (e *Engine) run(threadID string) {
	ctx := context.Background()

	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	if e.runs != nil {
		defer e.runs.ClearRunning(threadID)
	}

	cp, err := e.checkpoints.Get(ctx, threadID)
	if err != nil {
		e.logError(threadID, "load checkpoint for run", err)
		return
	}
	if len(cp.Next) == 0 {
		return
	}

	if err := e.acquireGate(ctx); err != nil {
		e.fail(ctx, cp, err)
		return
	}
	defer e.gate.Release(ctx)

	state, next, err := e.graph.Run(ctx, cp.State, cp.Next[0], false)
	if err != nil {
		e.fail(ctx, cp, err)
		return
	}

	cp.State = state
	cp.Next = next
	cp.LastError = ""
	if err := e.checkpoints.Put(ctx, cp); err != nil {
		e.logError(threadID, "save checkpoint after run", err)
	}
}

// GetState returns the derived status view for a thread.
func (e *Engine) GetState(ctx context.Context, threadID string) (*SessionState, error) {
	cp, err := e.checkpoints.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return sessionStateOf(cp), nil
}

// Continue resumes an interrupted session. ApproveToken executes the pending
// Curator transition; any other input records a rejection message, discards
// the pending insights, and ends the session without curating.
func (e *Engine) Continue(ctx context.Context, threadID string, userInput string) (*SessionState, error) {
	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	cp, err := e.checkpoints.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if cp.DeriveStatus() != StatusInterrupted {
		return nil, ErrNotInterrupted
	}

	if userInput == ApproveToken {
		if err := e.acquireGate(ctx); err != nil {
			return nil, e.fail(ctx, cp, err)
		}
		defer e.gate.Release(ctx)

		state, next, err := e.graph.Run(ctx, cp.State, cp.Next[0], true)
		if err != nil {
			return nil, e.fail(ctx, cp, err)
		}
		cp.State = state
		cp.Next = next
	} else {
		empty := []Insight{}
		cp.State = cp.State.Apply(Update{
			Messages: []Message{
				{Id: uuid.NewString(), Type: "human", Content: rejectedMessage},
			},
			PendingInsights: &empty,
		})
		cp.Next = nil
	}

	cp.LastError = ""
	if err := e.checkpoints.Put(ctx, cp); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	return sessionStateOf(cp), nil
}

// FindPlaybookInsight looks an approved insight up by id across all session
// playbooks, for citation display.
func (e *Engine) FindPlaybookInsight(ctx context.Context, insightID string) (*Insight, error) {
	checkpoints, err := e.checkpoints.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cp := range checkpoints {
		for _, insight := range cp.State.Playbook {
			if insight.Id == insightID {
				found := insight
				return &found, nil
			}
		}
	}
	return nil, nil
}

// acquireGate waits for the shared AI gate so session runs never overlap the
// insight worker's batch.
func (e *Engine) acquireGate(ctx context.Context) error {
	deadline := time.Now().Add(e.gateWait)
	for {
		if e.gate.TryAcquire(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for AI availability")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// fail records the error into the checkpoint and returns it.
func (e *Engine) fail(ctx context.Context, cp *Checkpoint, cause error) error {
	cp.LastError = cause.Error()
	if err := e.checkpoints.Put(ctx, cp); err != nil {
		e.logError(cp.ThreadID, "save failed checkpoint", err)
	}
	e.logError(cp.ThreadID, "session run failed", cause)
	return cause
}

func (e *Engine) logError(threadID, message string, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Error("engrammer", message, map[string]interface{}{
		"thread_id": threadID,
		"error":     err.Error(),
	})
}

func sessionStateOf(cp *Checkpoint) *SessionState {
	state := &SessionState{
		Status:          cp.DeriveStatus(),
		LatestResponse:  cp.State.LatestResponse(),
		PendingInsights: cp.State.PendingInsights,
		References:      cp.State.References,
		Error:           cp.LastError,
	}
	if state.PendingInsights == nil {
		state.PendingInsights = []Insight{}
	}
	if state.References == nil {
		state.References = []Reference{}
	}
	return state
}
