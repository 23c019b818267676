package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"engram-be/internal/model"
	"engram-be/pkg/engrammer"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckpointRepositoryImpl persists Engrammer sessions, one row per thread.
// The state and next-node list are stored as jsonb so graph changes do not
// require schema migrations.
type CheckpointRepositoryImpl struct {
	db *gorm.DB
}

var _ engrammer.Checkpointer = &CheckpointRepositoryImpl{}

func NewCheckpointRepository(db *gorm.DB) *CheckpointRepositoryImpl {
	return &CheckpointRepositoryImpl{db: db}
}

func (r *CheckpointRepositoryImpl) Get(ctx context.Context, threadID string) (*engrammer.Checkpoint, error) {
	var m model.EngrammerCheckpoint
	if err := r.db.WithContext(ctx).First(&m, "thread_id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engrammer.ErrCheckpointNotFound
		}
		return nil, err
	}
	return toCheckpoint(&m)
}

func (r *CheckpointRepositoryImpl) Put(ctx context.Context, checkpoint *engrammer.Checkpoint) error {
	m, err := toCheckpointModel(checkpoint)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *CheckpointRepositoryImpl) List(ctx context.Context) ([]*engrammer.Checkpoint, error) {
	var models []*model.EngrammerCheckpoint
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*engrammer.Checkpoint, 0, len(models))
	for _, m := range models {
		cp, err := toCheckpoint(m)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func toCheckpoint(m *model.EngrammerCheckpoint) (*engrammer.Checkpoint, error) {
	var state engrammer.State
	if err := json.Unmarshal(m.State, &state); err != nil {
		return nil, fmt.Errorf("decode checkpoint state for thread %s: %w", m.ThreadId, err)
	}

	var next []engrammer.NodeID
	if len(m.Next) > 0 {
		if err := json.Unmarshal(m.Next, &next); err != nil {
			return nil, fmt.Errorf("decode checkpoint next for thread %s: %w", m.ThreadId, err)
		}
	}

	var lastError string
	if m.LastError != nil {
		lastError = *m.LastError
	}

	return &engrammer.Checkpoint{
		ThreadID:  m.ThreadId,
		State:     state,
		Next:      next,
		LastError: lastError,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func toCheckpointModel(cp *engrammer.Checkpoint) (*model.EngrammerCheckpoint, error) {
	stateRaw, err := json.Marshal(cp.State)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint state: %w", err)
	}
	nextRaw, err := json.Marshal(cp.Next)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint next: %w", err)
	}

	var lastError *string
	if cp.LastError != "" {
		e := cp.LastError
		lastError = &e
	}

	return &model.EngrammerCheckpoint{
		ThreadId:  cp.ThreadID,
		State:     stateRaw,
		Next:      nextRaw,
		LastError: lastError,
	}, nil
}
