package worker

import (
	"context"
	"errors"
	"sync"

	"engram-be/internal/constant"
	"engram-be/internal/entity"
	"engram-be/internal/repository/contract"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/enrichment"

	"github.com/google/uuid"
)

// Shared in-memory fakes for both worker suites.

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type fakeNoteRepo struct {
	mu    sync.Mutex
	notes map[uuid.UUID]*entity.Note

	findErr error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[uuid.UUID]*entity.Note)}
}

func (r *fakeNoteRepo) add(n *entity.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *n
	r.notes[n.Id] = &copied
}

func (r *fakeNoteRepo) get(id uuid.UUID) *entity.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notes[id]; ok {
		copied := *n
		return &copied
	}
	return nil
}

func (r *fakeNoteRepo) Create(ctx context.Context, note *entity.Note) error {
	r.add(note)
	return nil
}

func (r *fakeNoteRepo) Update(ctx context.Context, note *entity.Note) error {
	r.add(note)
	return nil
}

func (r *fakeNoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
	return nil
}

func (r *fakeNoteRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	return nil, nil
}

func (r *fakeNoteRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.notes {
		if n.Status != constant.NoteStatusActive {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeNoteRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.notes)), nil
}

func (r *fakeNoteRepo) FindPendingEmbedding(ctx context.Context, limit int) ([]*entity.Note, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.notes {
		if n.EmbeddingStatus != constant.EnrichmentStatusPending {
			continue
		}
		if n.Status != constant.NoteStatusActive {
			continue
		}
		copied := *n
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) FindAwaitingInsight(ctx context.Context, limit int) ([]*entity.Note, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.notes {
		if n.EmbeddingStatus != constant.EnrichmentStatusCompleted {
			continue
		}
		if n.InsightStatus != constant.EnrichmentStatusPending {
			continue
		}
		if n.Status != constant.NoteStatusActive {
			continue
		}
		copied := *n
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) UpdateEnrichment(ctx context.Context, note *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notes[note.Id]
	if !ok {
		return errors.New("note not found")
	}
	stored.Embedding = note.Embedding
	stored.GeneratedCaption = note.GeneratedCaption
	stored.EmbeddingStatus = note.EmbeddingStatus
	stored.InsightStatus = note.InsightStatus
	return nil
}

func (r *fakeNoteRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*entity.Note, error) {
	return nil, nil
}

type fakeRelationRepo struct {
	mu        sync.Mutex
	relations []*entity.Relation

	createBatchErr error
}

func (r *fakeRelationRepo) Create(ctx context.Context, relation *entity.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations = append(r.relations, relation)
	return nil
}

func (r *fakeRelationRepo) CreateBatch(ctx context.Context, relations []*entity.Relation) error {
	if r.createBatchErr != nil {
		return r.createBatchErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations = append(r.relations, relations...)
	return nil
}

func (r *fakeRelationRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeRelationRepo) DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error { return nil }

func (r *fakeRelationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Relation, error) {
	return nil, nil
}

func (r *fakeRelationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Relation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Relation{}, r.relations...), nil
}

func (r *fakeRelationRepo) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback string) error {
	return nil
}

func (r *fakeRelationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.relations)
}

// fakeUnitOfWork is non-transactional: Begin/Commit/Rollback are bookkeeping
// only, since the fakes mutate shared maps directly.
type fakeUnitOfWork struct {
	notes     *fakeNoteRepo
	relations *fakeRelationRepo

	beginErr  error
	committed bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return u.beginErr }
func (u *fakeUnitOfWork) Commit() error {
	u.committed = true
	return nil
}
func (u *fakeUnitOfWork) Rollback() error                               { return nil }
func (u *fakeUnitOfWork) NoteRepository() contract.NoteRepository       { return u.notes }
func (u *fakeUnitOfWork) RelationRepository() contract.RelationRepository { return u.relations }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// stubClient scripts the enrichment boundary per note id.
type stubClient struct {
	mu sync.Mutex

	embedErr    map[string]error
	caption     string
	embedCalls  []string
	suggestions []enrichment.Suggestion
	suggestErr  error
}

func (c *stubClient) EmbedNote(ctx context.Context, content string, mimeType string) (*enrichment.EmbedResult, error) {
	c.mu.Lock()
	c.embedCalls = append(c.embedCalls, content)
	c.mu.Unlock()
	if err, ok := c.embedErr[content]; ok {
		return nil, err
	}
	return &enrichment.EmbedResult{
		Embedding: []float32{0.5, 0.5},
		Caption:   c.caption,
	}, nil
}

func (c *stubClient) SuggestConnections(ctx context.Context, note enrichment.NoteInput, contextNotes []enrichment.NoteInput) ([]enrichment.Suggestion, error) {
	if c.suggestErr != nil {
		return nil, c.suggestErr
	}
	return c.suggestions, nil
}

func activeNote(content, embeddingStatus, insightStatus string) *entity.Note {
	return &entity.Note{
		Id:              uuid.New(),
		Type:            constant.NoteTypeText,
		Content:         content,
		EmbeddingStatus: embeddingStatus,
		InsightStatus:   insightStatus,
		Status:          constant.NoteStatusActive,
	}
}
