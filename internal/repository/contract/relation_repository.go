package contract

import (
	"context"

	"engram-be/internal/entity"
	"engram-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RelationRepository interface {
	Create(ctx context.Context, relation *entity.Relation) error
	CreateBatch(ctx context.Context, relations []*entity.Relation) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Relation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Relation, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, feedback string) error
}
