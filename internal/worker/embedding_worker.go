// Package worker holds the background enrichment loops: the embedding worker
// vectorizes new notes, the insight worker proposes relations between them.
// Both poll on a ticker, process small batches, and isolate failures per
// note so one bad record never stalls the queue.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/entity"
	"engram-be/internal/pkg/logger"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/enrichment"
	"engram-be/pkg/events"
	pktNats "engram-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EmbeddingWorker moves notes from embeddingStatus=pending to
// completed/failed. It wakes on the ticker and additionally on the wake-up
// topic published when a note is created or its content changes.
type EmbeddingWorker struct {
	uowFactory     unitofwork.RepositoryFactory
	client         enrichment.Client
	eventPublisher *pktNats.Publisher
	pubSub         *gochannel.GoChannel
	topicName      string
	interval       time.Duration
	batchSize      int
	logger         logger.ILogger

	busy atomic.Bool
}

func NewEmbeddingWorker(
	uowFactory unitofwork.RepositoryFactory,
	client enrichment.Client,
	eventPublisher *pktNats.Publisher,
	pubSub *gochannel.GoChannel,
	topicName string,
	interval time.Duration,
	batchSize int,
	log logger.ILogger,
) *EmbeddingWorker {
	return &EmbeddingWorker{
		uowFactory:     uowFactory,
		client:         client,
		eventPublisher: eventPublisher,
		pubSub:         pubSub,
		topicName:      topicName,
		interval:       interval,
		batchSize:      batchSize,
		logger:         log,
	}
}

// Start launches the polling loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (w *EmbeddingWorker) Start(ctx context.Context) error {
	wake := make(chan struct{}, 1)

	if w.pubSub != nil {
		messages, err := w.pubSub.Subscribe(ctx, w.topicName)
		if err != nil {
			return err
		}
		go func() {
			for msg := range messages {
				msg.Ack()
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.RunBatch(ctx)
			case <-wake:
				w.RunBatch(ctx)
			}
		}
	}()

	return nil
}

// RunBatch processes up to batchSize pending notes. Overlapping invocations
// collapse into one: a tick firing mid-batch is skipped.
func (w *EmbeddingWorker) RunBatch(ctx context.Context) {
	if !w.busy.CompareAndSwap(false, true) {
		return
	}
	defer w.busy.Store(false)

	uow := w.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindPendingEmbedding(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("embedding_worker", "failed to fetch pending notes", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, note := range notes {
		w.processNote(ctx, uow, note)
	}
}

func (w *EmbeddingWorker) processNote(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note) {
	result, err := w.client.EmbedNote(ctx, note.Content, mimeTypeFor(note.Type))
	if err != nil {
		w.logger.Error("embedding_worker", "embedding failed", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		note.EmbeddingStatus = constant.EnrichmentStatusFailed
		if updErr := uow.NoteRepository().UpdateEnrichment(ctx, note); updErr != nil {
			w.logger.Error("embedding_worker", "failed to record failure", map[string]interface{}{
				"note_id": note.Id,
				"error":   updErr.Error(),
			})
		}
		w.publish(ctx, events.TypeEnrichmentFailed, map[string]interface{}{
			"note_id": note.Id,
			"stage":   "embedding",
		})
		return
	}

	note.Embedding = result.Embedding
	note.GeneratedCaption = result.Caption
	note.EmbeddingStatus = constant.EnrichmentStatusCompleted
	if err := uow.NoteRepository().UpdateEnrichment(ctx, note); err != nil {
		w.logger.Error("embedding_worker", "failed to store embedding", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		return
	}

	w.logger.Info("embedding_worker", "note embedded", map[string]interface{}{"note_id": note.Id})
	w.publish(ctx, events.TypeNoteEmbedded, map[string]interface{}{"note_id": note.Id})
}

func (w *EmbeddingWorker) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if w.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := w.eventPublisher.Publish(ctx, evt); err != nil {
		w.logger.Warn("embedding_worker", "event publish failed", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// mimeTypeFor maps a note type to the payload encoding the enrichment client
// expects. Image and audio notes carry base64 media in content.
func mimeTypeFor(noteType string) string {
	switch noteType {
	case constant.NoteTypeImage:
		return "image/png"
	case constant.NoteTypeAudio:
		return "audio/mpeg"
	default:
		return "text/plain"
	}
}
