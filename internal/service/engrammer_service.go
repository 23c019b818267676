package service

import (
	"context"
	"errors"

	"engram-be/internal/dto"
	"engram-be/internal/pkg/apperror"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/engrammer"

	"github.com/google/uuid"
)

const sourcePlaybook = "playbook"

type IEngrammerService interface {
	Start(ctx context.Context, req *dto.EngrammerStartRequest) (*dto.EngrammerStartResponse, error)
	GetState(ctx context.Context, threadId string) (*dto.EngrammerStateResponse, error)
	Continue(ctx context.Context, req *dto.EngrammerContinueRequest) (*dto.EngrammerContinueResponse, error)
	GetNote(ctx context.Context, source, noteId string) (*dto.EngrammerNoteResponse, error)
}

type engrammerService struct {
	engine     *engrammer.Engine
	uowFactory unitofwork.RepositoryFactory
}

func NewEngrammerService(engine *engrammer.Engine, uowFactory unitofwork.RepositoryFactory) IEngrammerService {
	return &engrammerService{
		engine:     engine,
		uowFactory: uowFactory,
	}
}

func (c *engrammerService) Start(ctx context.Context, req *dto.EngrammerStartRequest) (*dto.EngrammerStartResponse, error) {
	if req.Query == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with "query".`)
	}

	threadId, err := c.engine.Start(ctx, req.Query, req.ThreadId)
	if err != nil {
		return nil, apperror.NewInternal("failed to start session", err)
	}

	return &dto.EngrammerStartResponse{ThreadId: threadId}, nil
}

func (c *engrammerService) GetState(ctx context.Context, threadId string) (*dto.EngrammerStateResponse, error) {
	if threadId == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with "threadId".`)
	}

	state, err := c.engine.GetState(ctx, threadId)
	if err != nil {
		if errors.Is(err, engrammer.ErrCheckpointNotFound) {
			return nil, apperror.NewNotFound("no session found for thread " + threadId)
		}
		return nil, apperror.NewInternal("failed to load session state", err)
	}

	return toEngrammerStateResponse(state), nil
}

func (c *engrammerService) Continue(ctx context.Context, req *dto.EngrammerContinueRequest) (*dto.EngrammerContinueResponse, error) {
	if req.ThreadId == "" || req.UserInput == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with "threadId" and "userInput".`)
	}

	state, err := c.engine.Continue(ctx, req.ThreadId, req.UserInput)
	if err != nil {
		switch {
		case errors.Is(err, engrammer.ErrCheckpointNotFound):
			return nil, apperror.NewNotFound("no session found for thread " + req.ThreadId)
		case errors.Is(err, engrammer.ErrNotInterrupted):
			return nil, apperror.NewInvalidArgument("session is not awaiting approval")
		default:
			return nil, apperror.NewInternal("failed to resume session", err)
		}
	}

	return &dto.EngrammerContinueResponse{
		Status: string(state.Status),
		Error:  state.Error,
	}, nil
}

// GetNote resolves a citation to its source representation: the content store
// for "notes", the approved playbooks for "playbook". A citation pointing at
// a deleted note resolves to nil rather than an error.
func (c *engrammerService) GetNote(ctx context.Context, source, noteId string) (*dto.EngrammerNoteResponse, error) {
	if source == "" || noteId == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with "source" and "noteId".`)
	}

	if source == sourcePlaybook {
		insight, err := c.engine.FindPlaybookInsight(ctx, noteId)
		if err != nil {
			return nil, apperror.NewInternal("failed to look up playbook insight", err)
		}
		if insight == nil {
			return nil, nil
		}
		return &dto.EngrammerNoteResponse{
			Id:      insight.Id,
			Source:  sourcePlaybook,
			Content: insight.Content,
		}, nil
	}

	id, err := uuid.Parse(noteId)
	if err != nil {
		return nil, apperror.NewInvalidArgument("noteId must be a valid id")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.NewInternal("failed to look up note", err)
	}
	if note == nil {
		return nil, nil
	}

	return &dto.EngrammerNoteResponse{
		Id:      note.Id.String(),
		Source:  "notes",
		Type:    note.Type,
		Content: note.Content,
	}, nil
}

func toEngrammerStateResponse(state *engrammer.SessionState) *dto.EngrammerStateResponse {
	insights := make([]dto.EngrammerInsight, len(state.PendingInsights))
	for i, ins := range state.PendingInsights {
		insights[i] = dto.EngrammerInsight{Id: ins.Id, Content: ins.Content}
	}

	references := make([]dto.EngrammerReference, len(state.References))
	for i, ref := range state.References {
		references[i] = dto.EngrammerReference{Source: ref.Source, NoteId: ref.NoteId, Title: ref.Title}
	}

	return &dto.EngrammerStateResponse{
		Status:          string(state.Status),
		LatestResponse:  state.LatestResponse,
		PendingInsights: insights,
		References:      references,
		Error:           state.Error,
	}
}
