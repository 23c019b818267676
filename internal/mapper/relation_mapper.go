package mapper

import (
	"engram-be/internal/entity"
	"engram-be/internal/model"
)

type RelationMapper struct{}

func NewRelationMapper() *RelationMapper {
	return &RelationMapper{}
}

func (m *RelationMapper) ToEntity(r *model.Relation) *entity.Relation {
	if r == nil {
		return nil
	}
	return &entity.Relation{
		Id:        r.Id,
		SourceId:  r.SourceId,
		TargetId:  r.TargetId,
		Reasoning: r.Reasoning,
		Source:    r.Source,
		Feedback:  r.Feedback,
		CreatedAt: r.CreatedAt,
	}
}

func (m *RelationMapper) ToModel(r *entity.Relation) *model.Relation {
	if r == nil {
		return nil
	}
	return &model.Relation{
		Id:        r.Id,
		SourceId:  r.SourceId,
		TargetId:  r.TargetId,
		Reasoning: r.Reasoning,
		Source:    r.Source,
		Feedback:  r.Feedback,
		CreatedAt: r.CreatedAt,
	}
}

func (m *RelationMapper) ToEntities(relations []*model.Relation) []*entity.Relation {
	entities := make([]*entity.Relation, len(relations))
	for i, r := range relations {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
