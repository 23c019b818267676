package engrammer

import (
	"context"
	"errors"
	"time"
)

// ErrCheckpointNotFound is returned when no checkpoint exists for a thread.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Status is the externally visible session status, derived from a checkpoint
// rather than stored.
type Status string

const (
	StatusRunning     Status = "running"
	StatusInterrupted Status = "interrupted"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// Checkpoint is a full session snapshot keyed by thread. Next holds the nodes
// still to execute; an empty Next means the graph reached End.
type Checkpoint struct {
	ThreadID  string
	State     State
	Next      []NodeID
	LastError string
	UpdatedAt time.Time
}

// DeriveStatus computes the session status. A recorded error wins; otherwise
// an empty Next means done, a pending curator means the human gate is open,
// and anything else is still running.
func (c *Checkpoint) DeriveStatus() Status {
	if c.LastError != "" {
		return StatusError
	}
	if len(c.Next) == 0 {
		return StatusDone
	}
	if c.Next[0] == NodeCurator {
		return StatusInterrupted
	}
	return StatusRunning
}

// Checkpointer persists session snapshots. Implementations must make Put an
// upsert keyed by thread.
type Checkpointer interface {
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	Put(ctx context.Context, checkpoint *Checkpoint) error
	List(ctx context.Context) ([]*Checkpoint, error)
}
