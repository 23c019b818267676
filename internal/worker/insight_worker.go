package worker

import (
	"context"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/entity"
	"engram-be/internal/pkg/logger"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/aigate"
	"engram-be/pkg/enrichment"
	"engram-be/pkg/events"
	pktNats "engram-be/pkg/nats"

	"github.com/google/uuid"
)

// InsightWorker moves embedded notes from insightStatus=pending to
// completed/failed, writing one Relation per accepted suggestion. It shares
// the AI gate with the Engrammer engine: a tick that finds the gate busy is
// skipped entirely, never queued.
type InsightWorker struct {
	uowFactory     unitofwork.RepositoryFactory
	client         enrichment.Client
	gate           *aigate.Gate
	eventPublisher *pktNats.Publisher
	interval       time.Duration
	batchSize      int
	logger         logger.ILogger
}

func NewInsightWorker(
	uowFactory unitofwork.RepositoryFactory,
	client enrichment.Client,
	gate *aigate.Gate,
	eventPublisher *pktNats.Publisher,
	interval time.Duration,
	batchSize int,
	log logger.ILogger,
) *InsightWorker {
	return &InsightWorker{
		uowFactory:     uowFactory,
		client:         client,
		gate:           gate,
		eventPublisher: eventPublisher,
		interval:       interval,
		batchSize:      batchSize,
		logger:         log,
	}
}

// Start launches the polling loop; it stops when ctx is cancelled.
func (w *InsightWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.RunBatch(ctx)
			}
		}
	}()
}

// RunBatch processes up to batchSize notes awaiting insights. Each note gets
// every other active note as candidate context; suggestions are persisted
// with the status flip in one transaction, so a note is never half-written.
func (w *InsightWorker) RunBatch(ctx context.Context) {
	if !w.gate.TryAcquire(ctx) {
		return
	}
	defer w.gate.Release(ctx)

	uow := w.uowFactory.NewUnitOfWork(ctx)
	targets, err := uow.NoteRepository().FindAwaitingInsight(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("insight_worker", "failed to fetch notes awaiting insight", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(targets) == 0 {
		return
	}

	active, err := uow.NoteRepository().FindAll(ctx, specification.ActiveOnly{})
	if err != nil {
		w.logger.Error("insight_worker", "failed to fetch context notes", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, target := range targets {
		w.processNote(ctx, target, active)
	}
}

func (w *InsightWorker) processNote(ctx context.Context, target *entity.Note, active []*entity.Note) {
	contextInputs := make([]enrichment.NoteInput, 0, len(active))
	knownTargets := make(map[string]bool, len(active))
	for _, n := range active {
		if n.Id == target.Id {
			continue
		}
		contextInputs = append(contextInputs, toNoteInput(n))
		knownTargets[n.Id.String()] = true
	}

	suggestions, err := w.client.SuggestConnections(ctx, toNoteInput(target), contextInputs)
	if err == nil {
		err = enrichment.ValidateSuggestions(suggestions, knownTargets)
	}
	if err != nil {
		w.fail(ctx, target, err)
		return
	}

	if err := w.persist(ctx, target, suggestions); err != nil {
		w.fail(ctx, target, err)
		return
	}

	w.logger.Info("insight_worker", "relations suggested", map[string]interface{}{
		"note_id": target.Id,
		"count":   len(suggestions),
	})
	w.publish(ctx, events.TypeRelationsSuggested, map[string]interface{}{
		"note_id": target.Id,
		"count":   len(suggestions),
	})
}

// persist writes the relations and the completed status atomically.
func (w *InsightWorker) persist(ctx context.Context, target *entity.Note, suggestions []enrichment.Suggestion) error {
	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	relations := make([]*entity.Relation, 0, len(suggestions))
	for _, s := range suggestions {
		targetId, err := uuid.Parse(s.TargetNoteId)
		if err != nil {
			return err
		}
		relations = append(relations, &entity.Relation{
			Id:        uuid.New(),
			SourceId:  target.Id,
			TargetId:  targetId,
			Reasoning: s.Reasoning,
			Source:    constant.RelationSourceAISuggestion,
			Feedback:  constant.RelationFeedbackPending,
			CreatedAt: time.Now(),
		})
	}

	if err := uow.RelationRepository().CreateBatch(ctx, relations); err != nil {
		return err
	}

	target.InsightStatus = constant.EnrichmentStatusCompleted
	if err := uow.NoteRepository().UpdateEnrichment(ctx, target); err != nil {
		return err
	}

	return uow.Commit()
}

func (w *InsightWorker) fail(ctx context.Context, target *entity.Note, cause error) {
	w.logger.Error("insight_worker", "insight generation failed", map[string]interface{}{
		"note_id": target.Id,
		"error":   cause.Error(),
	})

	uow := w.uowFactory.NewUnitOfWork(ctx)
	target.InsightStatus = constant.EnrichmentStatusFailed
	if err := uow.NoteRepository().UpdateEnrichment(ctx, target); err != nil {
		w.logger.Error("insight_worker", "failed to record failure", map[string]interface{}{
			"note_id": target.Id,
			"error":   err.Error(),
		})
	}
	w.publish(ctx, events.TypeEnrichmentFailed, map[string]interface{}{
		"note_id": target.Id,
		"stage":   "insight",
	})
}

func (w *InsightWorker) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if w.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := w.eventPublisher.Publish(ctx, evt); err != nil {
		w.logger.Warn("insight_worker", "event publish failed", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toNoteInput(n *entity.Note) enrichment.NoteInput {
	content := n.Content
	if n.GeneratedCaption != "" {
		content = n.GeneratedCaption
	}
	return enrichment.NoteInput{
		Id:      n.Id.String(),
		Type:    n.Type,
		Content: content,
	}
}
