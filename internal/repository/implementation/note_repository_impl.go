package implementation

import (
	"context"
	"errors"

	"engram-be/internal/constant"
	"engram-be/internal/entity"
	"engram-be/internal/mapper"
	"engram-be/internal/model"
	"engram-be/internal/repository/contract"
	"engram-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Note{}, id).Error
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NoteRepositoryImpl) FindPendingEmbedding(ctx context.Context, limit int) ([]*entity.Note, error) {
	return r.FindAll(ctx,
		specification.PendingEmbedding{},
		specification.ActiveOnly{},
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: limit},
	)
}

func (r *NoteRepositoryImpl) FindAwaitingInsight(ctx context.Context, limit int) ([]*entity.Note, error) {
	return r.FindAll(ctx,
		specification.AwaitingInsight{},
		specification.ActiveOnly{},
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: limit},
	)
}

func (r *NoteRepositoryImpl) UpdateEnrichment(ctx context.Context, note *entity.Note) error {
	updates := map[string]interface{}{
		"embedding_status": note.EmbeddingStatus,
		"insight_status":   note.InsightStatus,
	}
	if len(note.Embedding) > 0 {
		v := pgvector.NewVector(note.Embedding)
		updates["embedding"] = &v
	}
	if note.GeneratedCaption != "" {
		updates["generated_caption"] = note.GeneratedCaption
	}
	return r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", note.Id).
		Updates(updates).Error
}

func (r *NoteRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*entity.Note, error) {
	var models []*model.Note
	err := r.db.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Where("status = ?", constant.NoteStatusActive).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ?",
			Vars:               []interface{}{pgvector.NewVector(embedding)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
