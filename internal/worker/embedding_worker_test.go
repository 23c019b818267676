package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingWorker(repo *fakeNoteRepo, client *stubClient, batchSize int) *EmbeddingWorker {
	factory := &fakeFactory{uow: &fakeUnitOfWork{notes: repo, relations: &fakeRelationRepo{}}}
	return NewEmbeddingWorker(factory, client, nil, nil, "EMBED_NOTE_CONTENT", time.Minute, batchSize, noopLogger{})
}

func TestEmbeddingWorkerCompletesPendingNotes(t *testing.T) {
	repo := newFakeNoteRepo()
	note := activeNote("remember to water the plants", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending)
	repo.add(note)

	client := &stubClient{}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	stored := repo.get(note.Id)
	require.NotNil(t, stored)
	assert.Equal(t, constant.EnrichmentStatusCompleted, stored.EmbeddingStatus)
	assert.Equal(t, []float32{0.5, 0.5}, stored.Embedding)
	// The insight stage stays pending for the other worker.
	assert.Equal(t, constant.EnrichmentStatusPending, stored.InsightStatus)
}

func TestEmbeddingWorkerStoresCaption(t *testing.T) {
	repo := newFakeNoteRepo()
	note := &entity.Note{
		Id:              uuid.New(),
		Type:            constant.NoteTypeImage,
		Content:         "base64-image-bytes",
		EmbeddingStatus: constant.EnrichmentStatusPending,
		Status:          constant.NoteStatusActive,
	}
	repo.add(note)

	client := &stubClient{caption: "a sketch of the garden layout"}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	stored := repo.get(note.Id)
	assert.Equal(t, "a sketch of the garden layout", stored.GeneratedCaption)
	assert.Equal(t, constant.EnrichmentStatusCompleted, stored.EmbeddingStatus)
}

func TestEmbeddingWorkerIsolatesFailures(t *testing.T) {
	repo := newFakeNoteRepo()
	bad := activeNote("bad note", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending)
	good := activeNote("good note", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending)
	repo.add(bad)
	repo.add(good)

	client := &stubClient{embedErr: map[string]error{
		"bad note": errors.New("provider rejected content"),
	}}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	assert.Equal(t, constant.EnrichmentStatusFailed, repo.get(bad.Id).EmbeddingStatus)
	assert.Equal(t, constant.EnrichmentStatusCompleted, repo.get(good.Id).EmbeddingStatus)
}

func TestEmbeddingWorkerHonorsBatchSize(t *testing.T) {
	repo := newFakeNoteRepo()
	for i := 0; i < 8; i++ {
		repo.add(activeNote("note", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending))
	}

	client := &stubClient{}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	assert.Len(t, client.embedCalls, 5)
}

func TestEmbeddingWorkerSkipsOverlappingRuns(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.add(activeNote("note", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending))

	client := &stubClient{}
	worker := newEmbeddingWorker(repo, client, 5)

	// Simulate a tick firing while a batch is still in flight.
	worker.busy.Store(true)
	worker.RunBatch(context.Background())
	assert.Empty(t, client.embedCalls)

	worker.busy.Store(false)
	worker.RunBatch(context.Background())
	assert.Len(t, client.embedCalls, 1)
}

func TestEmbeddingWorkerSkipsArchivedNotes(t *testing.T) {
	repo := newFakeNoteRepo()
	archived := activeNote("shelved before embedding", constant.EnrichmentStatusPending, constant.EnrichmentStatusPending)
	archived.Status = constant.NoteStatusArchived
	repo.add(archived)

	client := &stubClient{}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	assert.Empty(t, client.embedCalls)
	assert.Equal(t, constant.EnrichmentStatusPending, repo.get(archived.Id).EmbeddingStatus)
}

func TestEmbeddingWorkerIgnoresNonPendingNotes(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.add(activeNote("done", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending))
	repo.add(activeNote("broken", constant.EnrichmentStatusFailed, constant.EnrichmentStatusPending))

	client := &stubClient{}
	worker := newEmbeddingWorker(repo, client, 5)
	worker.RunBatch(context.Background())

	assert.Empty(t, client.embedCalls)
}
