package service

import (
	"context"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/dto"
	"engram-be/internal/entity"
	"engram-be/internal/pkg/apperror"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IRelationService interface {
	Create(ctx context.Context, req *dto.CreateRelationRequest) (*dto.RelationResponse, error)
	ListByNote(ctx context.Context, noteId uuid.UUID) ([]*dto.RelationResponse, error)
	Feedback(ctx context.Context, req *dto.RelationFeedbackRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type relationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewRelationService(uowFactory unitofwork.RepositoryFactory) IRelationService {
	return &relationService{
		uowFactory: uowFactory,
	}
}

func (c *relationService) Create(ctx context.Context, req *dto.CreateRelationRequest) (*dto.RelationResponse, error) {
	if req.SourceId == req.TargetId {
		return nil, apperror.NewInvalidArgument("a note cannot relate to itself")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	// Both endpoints must exist at creation time.
	for _, id := range []uuid.UUID{req.SourceId, req.TargetId} {
		note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, err
		}
		if note == nil {
			return nil, apperror.NewNotFound("note not found: " + id.String())
		}
	}

	relation := entity.Relation{
		Id:        uuid.New(),
		SourceId:  req.SourceId,
		TargetId:  req.TargetId,
		Reasoning: req.Reasoning,
		Source:    constant.RelationSourceUserManual,
		Feedback:  constant.RelationFeedbackPending,
		CreatedAt: time.Now(),
	}

	if err := uow.RelationRepository().Create(ctx, &relation); err != nil {
		return nil, err
	}
	return toRelationResponse(&relation), nil
}

func (c *relationService) ListByNote(ctx context.Context, noteId uuid.UUID) ([]*dto.RelationResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	relations, err := uow.RelationRepository().FindAll(ctx,
		specification.ByRelationEndpoint{NoteID: noteId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.RelationResponse, len(relations))
	for i, r := range relations {
		res[i] = toRelationResponse(r)
	}
	return res, nil
}

func (c *relationService) Feedback(ctx context.Context, req *dto.RelationFeedbackRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	relation, err := uow.RelationRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return err
	}
	if relation == nil {
		return apperror.NewNotFound("relation not found")
	}
	return uow.RelationRepository().UpdateFeedback(ctx, req.Id, req.Feedback)
}

func (c *relationService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.RelationRepository().Delete(ctx, id)
}

func toRelationResponse(r *entity.Relation) *dto.RelationResponse {
	return &dto.RelationResponse{
		Id:        r.Id,
		SourceId:  r.SourceId,
		TargetId:  r.TargetId,
		Reasoning: r.Reasoning,
		Source:    r.Source,
		Feedback:  r.Feedback,
		CreatedAt: r.CreatedAt,
	}
}
