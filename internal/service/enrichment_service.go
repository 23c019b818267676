package service

import (
	"context"

	"engram-be/internal/dto"
	"engram-be/internal/pkg/apperror"
	"engram-be/pkg/enrichment"
)

type IEnrichmentService interface {
	FindConnections(ctx context.Context, req *dto.FindConnectionsRequest) (*dto.FindConnectionsResponse, error)
	EmbedNote(ctx context.Context, req *dto.EmbedNoteRequest) (*dto.EmbedNoteResponse, error)
}

type enrichmentService struct {
	client enrichment.Client
}

func NewEnrichmentService(client enrichment.Client) IEnrichmentService {
	return &enrichmentService{
		client: client,
	}
}

func (c *enrichmentService) FindConnections(ctx context.Context, req *dto.FindConnectionsRequest) (*dto.FindConnectionsResponse, error) {
	if req.Note == nil || req.Note.Id == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with one argument "note".`)
	}

	contextNotes := make([]enrichment.NoteInput, len(req.ContextNotes))
	knownTargets := make(map[string]bool, len(req.ContextNotes))
	for i, n := range req.ContextNotes {
		contextNotes[i] = enrichment.NoteInput{Id: n.Id, Type: n.Type, Content: n.Content}
		knownTargets[n.Id] = true
	}

	suggestions, err := c.client.SuggestConnections(ctx, enrichment.NoteInput{
		Id:      req.Note.Id,
		Type:    req.Note.Type,
		Content: req.Note.Content,
	}, contextNotes)
	if err != nil {
		return nil, apperror.NewInternal("connection suggestion failed", err)
	}

	if err := enrichment.ValidateSuggestions(suggestions, knownTargets); err != nil {
		return nil, apperror.NewInternal("connection suggestion failed", err)
	}

	res := &dto.FindConnectionsResponse{
		Suggestions: make([]dto.ConnectionSuggestion, len(suggestions)),
	}
	for i, s := range suggestions {
		res.Suggestions[i] = dto.ConnectionSuggestion{
			TargetNoteId: s.TargetNoteId,
			Reasoning:    s.Reasoning,
		}
	}
	return res, nil
}

func (c *enrichmentService) EmbedNote(ctx context.Context, req *dto.EmbedNoteRequest) (*dto.EmbedNoteResponse, error) {
	if req.Content == "" {
		return nil, apperror.NewInvalidArgument(`The function must be called with "content".`)
	}

	result, err := c.client.EmbedNote(ctx, req.Content, req.MimeType)
	if err != nil {
		return nil, apperror.NewInternal("embedding failed", err)
	}

	return &dto.EmbedNoteResponse{
		Embedding: result.Embedding,
		Caption:   result.Caption,
	}, nil
}
