package implementation

import (
	"context"
	"errors"

	"engram-be/internal/entity"
	"engram-be/internal/mapper"
	"engram-be/internal/model"
	"engram-be/internal/repository/contract"
	"engram-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RelationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RelationMapper
}

func NewRelationRepository(db *gorm.DB) contract.RelationRepository {
	return &RelationRepositoryImpl{
		db:     db,
		mapper: mapper.NewRelationMapper(),
	}
}

func (r *RelationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RelationRepositoryImpl) Create(ctx context.Context, relation *entity.Relation) error {
	m := r.mapper.ToModel(relation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*relation = *r.mapper.ToEntity(m)
	return nil
}

func (r *RelationRepositoryImpl) CreateBatch(ctx context.Context, relations []*entity.Relation) error {
	if len(relations) == 0 {
		return nil
	}
	models := make([]*model.Relation, len(relations))
	for i, rel := range relations {
		models[i] = r.mapper.ToModel(rel)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*relations[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *RelationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Relation{}, id).Error
}

func (r *RelationRepositoryImpl) DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("source_id = ? OR target_id = ?", noteId, noteId).
		Delete(&model.Relation{}).Error
}

func (r *RelationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Relation, error) {
	var m model.Relation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RelationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Relation, error) {
	var models []*model.Relation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RelationRepositoryImpl) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback string) error {
	return r.db.WithContext(ctx).
		Model(&model.Relation{}).
		Where("id = ?", id).
		Update("feedback", feedback).Error
}
