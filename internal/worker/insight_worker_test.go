package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"engram-be/internal/constant"
	"engram-be/pkg/aigate"
	"engram-be/pkg/enrichment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInsightWorker(repo *fakeNoteRepo, relations *fakeRelationRepo, client *stubClient, gate *aigate.Gate) *InsightWorker {
	factory := &fakeFactory{uow: &fakeUnitOfWork{notes: repo, relations: relations}}
	return NewInsightWorker(factory, client, gate, nil, time.Minute, 5, noopLogger{})
}

func TestInsightWorkerWritesRelations(t *testing.T) {
	repo := newFakeNoteRepo()
	relations := &fakeRelationRepo{}

	target := activeNote("planning the sprint", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	other := activeNote("retro notes", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusCompleted)
	repo.add(target)
	repo.add(other)

	client := &stubClient{suggestions: []enrichment.Suggestion{
		{TargetNoteId: other.Id.String(), Reasoning: "both are about team process"},
	}}

	worker := newInsightWorker(repo, relations, client, aigate.New())
	worker.RunBatch(context.Background())

	assert.Equal(t, constant.EnrichmentStatusCompleted, repo.get(target.Id).InsightStatus)

	stored, err := relations.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, target.Id, stored[0].SourceId)
	assert.Equal(t, other.Id, stored[0].TargetId)
	assert.Equal(t, constant.RelationSourceAISuggestion, stored[0].Source)
	assert.Equal(t, constant.RelationFeedbackPending, stored[0].Feedback)
}

func TestInsightWorkerSkipsWhenGateIsBusy(t *testing.T) {
	repo := newFakeNoteRepo()
	target := activeNote("note", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	repo.add(target)

	gate := aigate.New()
	require.True(t, gate.TryAcquire(context.Background()))

	worker := newInsightWorker(repo, &fakeRelationRepo{}, &stubClient{}, gate)
	worker.RunBatch(context.Background())

	// Nothing ran; the note is untouched for the next tick.
	assert.Equal(t, constant.EnrichmentStatusPending, repo.get(target.Id).InsightStatus)
}

func TestInsightWorkerReleasesGate(t *testing.T) {
	repo := newFakeNoteRepo()
	gate := aigate.New()

	worker := newInsightWorker(repo, &fakeRelationRepo{}, &stubClient{}, gate)
	worker.RunBatch(context.Background())

	assert.False(t, gate.Busy())
}

func TestInsightWorkerRejectsHallucinatedTargets(t *testing.T) {
	repo := newFakeNoteRepo()
	relations := &fakeRelationRepo{}

	target := activeNote("note", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	other := activeNote("context", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusCompleted)
	repo.add(target)
	repo.add(other)

	client := &stubClient{suggestions: []enrichment.Suggestion{
		{TargetNoteId: "00000000-0000-0000-0000-00000000dead", Reasoning: "made up"},
	}}

	worker := newInsightWorker(repo, relations, client, aigate.New())
	worker.RunBatch(context.Background())

	// The whole set is rejected: status flips to failed, no relation lands.
	assert.Equal(t, constant.EnrichmentStatusFailed, repo.get(target.Id).InsightStatus)
	assert.Zero(t, relations.count())
}

func TestInsightWorkerMarksFailedOnProviderError(t *testing.T) {
	repo := newFakeNoteRepo()
	relations := &fakeRelationRepo{}

	target := activeNote("note", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	other := activeNote("context", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusCompleted)
	repo.add(target)
	repo.add(other)

	client := &stubClient{suggestErr: errors.New("model unavailable")}

	worker := newInsightWorker(repo, relations, client, aigate.New())
	worker.RunBatch(context.Background())

	assert.Equal(t, constant.EnrichmentStatusFailed, repo.get(target.Id).InsightStatus)
	assert.Zero(t, relations.count())
}

func TestInsightWorkerExcludesTargetFromContext(t *testing.T) {
	repo := newFakeNoteRepo()
	relations := &fakeRelationRepo{}

	target := activeNote("solo note", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	repo.add(target)

	// A note pointing at itself must fail validation: the only candidate
	// target was excluded from the known set.
	client := &stubClient{suggestions: []enrichment.Suggestion{
		{TargetNoteId: target.Id.String(), Reasoning: "self reference"},
	}}

	worker := newInsightWorker(repo, relations, client, aigate.New())
	worker.RunBatch(context.Background())

	assert.Equal(t, constant.EnrichmentStatusFailed, repo.get(target.Id).InsightStatus)
	assert.Zero(t, relations.count())
}

func TestInsightWorkerEmptySuggestionsStillCompletes(t *testing.T) {
	repo := newFakeNoteRepo()
	relations := &fakeRelationRepo{}

	target := activeNote("note", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	other := activeNote("context", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusCompleted)
	repo.add(target)
	repo.add(other)

	client := &stubClient{suggestions: []enrichment.Suggestion{}}

	worker := newInsightWorker(repo, relations, client, aigate.New())
	worker.RunBatch(context.Background())

	assert.Equal(t, constant.EnrichmentStatusCompleted, repo.get(target.Id).InsightStatus)
	assert.Zero(t, relations.count())
}

func TestInsightWorkerUsesCaptionAsContent(t *testing.T) {
	note := activeNote("raw-base64", constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
	note.GeneratedCaption = "a photo of the bookshelf"

	input := toNoteInput(note)
	assert.Equal(t, "a photo of the bookshelf", input.Content)
}
