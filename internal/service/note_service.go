package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/dto"
	"engram-be/internal/entity"
	"engram-be/internal/pkg/apperror"
	"engram-be/internal/pkg/logger"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/embedding"
	"engram-be/pkg/events"
	pktNats "engram-be/pkg/nats"

	"github.com/google/uuid"
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	List(ctx context.Context, req *dto.ListNotesRequest) (*dto.ListNotesResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Archive(ctx context.Context, id uuid.UUID) error
	Pin(ctx context.Context, id uuid.UUID) error
	RetryEnrichment(ctx context.Context, id uuid.UUID) error
	SemanticSearch(ctx context.Context, search string) (*dto.SemanticSearchResponse, error)
}

type noteService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	if !constant.IsValidNoteType(req.Type) {
		return nil, apperror.NewInvalidArgument(fmt.Sprintf("unknown note type '%s'", req.Type))
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	note := entity.Note{
		Id:              uuid.New(),
		Type:            req.Type,
		Content:         req.Content,
		EmbeddingStatus: constant.EnrichmentStatusPending,
		InsightStatus:   constant.EnrichmentStatusPending,
		Status:          constant.NoteStatusActive,
		Tags:            req.Tags,
		CreatedAt:       time.Now(),
	}

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	c.publishWakeUp(ctx, note.Id)
	c.publishEvent(ctx, events.TypeNoteCreated, map[string]interface{}{
		"note_id": note.Id,
		"type":    note.Type,
	})

	return &dto.CreateNoteResponse{Id: note.Id}, nil
}

func (c *noteService) List(ctx context.Context, req *dto.ListNotesRequest) (*dto.ListNotesResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	status := req.Status
	if status == "" {
		status = constant.NoteStatusActive
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.Filter("status", status),
		specification.OrderBy{Field: "is_pinned", Desc: true},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	total, err := uow.NoteRepository().Count(ctx, specification.Filter("status", status))
	if err != nil {
		return nil, err
	}

	res := &dto.ListNotesResponse{
		Notes: make([]dto.NoteResponse, len(notes)),
		Total: total,
	}
	for i, n := range notes {
		res.Notes[i] = *toNoteResponse(n)
	}
	return res, nil
}

func (c *noteService) Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperror.NewNotFound("note not found")
	}
	return toNoteResponse(note), nil
}

func (c *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperror.NewNotFound("note not found")
	}

	contentChanged := note.Content != req.Content

	note.Content = req.Content
	if req.Tags != nil {
		note.Tags = req.Tags
	}
	if req.IsCompleted != nil {
		note.IsCompleted = *req.IsCompleted
	}
	if contentChanged {
		// Changed content invalidates the old vector and insights.
		note.Embedding = nil
		note.GeneratedCaption = ""
		note.EmbeddingStatus = constant.EnrichmentStatusPending
		note.InsightStatus = constant.EnrichmentStatusPending
	}

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	if contentChanged {
		c.publishWakeUp(ctx, note.Id)
	}

	return &dto.UpdateNoteResponse{Id: note.Id}, nil
}

func (c *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Relations go with the note; soft-deleted notes must not keep edges.
	if err := uow.RelationRepository().DeleteByNoteId(ctx, id); err != nil {
		return err
	}
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *noteService) Archive(ctx context.Context, id uuid.UUID) error {
	return c.setStatus(ctx, id, func(n *entity.Note) {
		if n.Status == constant.NoteStatusArchived {
			n.Status = constant.NoteStatusActive
		} else {
			n.Status = constant.NoteStatusArchived
		}
	})
}

func (c *noteService) Pin(ctx context.Context, id uuid.UUID) error {
	return c.setStatus(ctx, id, func(n *entity.Note) {
		n.IsPinned = !n.IsPinned
	})
}

// RetryEnrichment resets failed enrichment stages back to pending. The
// workers never retry on their own, so this is the recovery path.
func (c *noteService) RetryEnrichment(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if note == nil {
		return apperror.NewNotFound("note not found")
	}

	changed := false
	if note.EmbeddingStatus == constant.EnrichmentStatusFailed {
		note.EmbeddingStatus = constant.EnrichmentStatusPending
		changed = true
	}
	if note.InsightStatus == constant.EnrichmentStatusFailed {
		note.InsightStatus = constant.EnrichmentStatusPending
		changed = true
	}
	if !changed {
		return apperror.NewInvalidArgument("note has no failed enrichment to retry")
	}

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err
	}

	c.publishWakeUp(ctx, note.Id)
	return nil
}

func (c *noteService) SemanticSearch(ctx context.Context, search string) (*dto.SemanticSearchResponse, error) {
	if search == "" {
		return nil, apperror.NewInvalidArgument("query parameter is required")
	}

	embedRes, err := c.embeddingProvider.Generate(search, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, apperror.NewInternal("failed to embed search query", err)
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().SearchSimilar(ctx, embedRes.Embedding.Values, 10)
	if err != nil {
		return nil, err
	}

	res := &dto.SemanticSearchResponse{
		Notes: make([]dto.NoteResponse, len(notes)),
	}
	for i, n := range notes {
		res.Notes[i] = *toNoteResponse(n)
	}
	return res, nil
}

func (c *noteService) setStatus(ctx context.Context, id uuid.UUID, mutate func(*entity.Note)) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if note == nil {
		return apperror.NewNotFound("note not found")
	}
	mutate(note)
	return uow.NoteRepository().Update(ctx, note)
}

func (c *noteService) publishWakeUp(ctx context.Context, noteId uuid.UUID) {
	if c.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedNoteMessage{NoteId: noteId})
	if err != nil {
		return
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.logger.Warn("note_service", "embed wake-up publish failed", map[string]interface{}{
			"note_id": noteId,
			"error":   err.Error(),
		})
	}
}

func (c *noteService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Events are auxiliary; the request must not fail on a bus outage.
	if err := c.eventPublisher.Publish(ctx, evt); err != nil {
		c.logger.Warn("note_service", "event publish failed", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toNoteResponse(n *entity.Note) *dto.NoteResponse {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.NoteResponse{
		Id:               n.Id,
		Type:             n.Type,
		Content:          n.Content,
		GeneratedCaption: n.GeneratedCaption,
		EmbeddingStatus:  n.EmbeddingStatus,
		InsightStatus:    n.InsightStatus,
		Status:           n.Status,
		IsPinned:         n.IsPinned,
		Tags:             tags,
		IsCompleted:      n.IsCompleted,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}
}
