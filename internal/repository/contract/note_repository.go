package contract

import (
	"context"

	"engram-be/internal/entity"
	"engram-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Worker queues. Both return oldest-first batches.
	FindPendingEmbedding(ctx context.Context, limit int) ([]*entity.Note, error)
	FindAwaitingInsight(ctx context.Context, limit int) ([]*entity.Note, error)

	// UpdateEnrichment writes the enrichment output fields only, leaving
	// user-owned fields untouched.
	UpdateEnrichment(ctx context.Context, note *entity.Note) error

	// SearchSimilar orders active notes by cosine distance to the embedding.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*entity.Note, error)
}
