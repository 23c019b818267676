package engrammer

import (
	"context"
	"sync"
	"time"
)

// MemoryCheckpointer is an in-process Checkpointer. Sessions do not survive a
// restart; production deployments use the database-backed implementation.
type MemoryCheckpointer struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
}

var _ Checkpointer = &MemoryCheckpointer{}

func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{
		checkpoints: make(map[string]*Checkpoint),
	}
}

func (m *MemoryCheckpointer) Get(ctx context.Context, threadID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[threadID]
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	copied := *cp
	return &copied, nil
}

func (m *MemoryCheckpointer) Put(ctx context.Context, checkpoint *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *checkpoint
	copied.UpdatedAt = time.Now()
	m.checkpoints[checkpoint.ThreadID] = &copied
	return nil
}

func (m *MemoryCheckpointer) List(ctx context.Context) ([]*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Checkpoint, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		copied := *cp
		out = append(out, &copied)
	}
	return out, nil
}
