package service

import (
	"context"

	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/embedding"
	"engram-be/pkg/engrammer"
	"engram-be/pkg/utils"
)

// NoteContextRetriever feeds the Engrammer reflector with notes similar to
// the session query, via the same vector search the API exposes.
type NoteContextRetriever struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

var _ engrammer.ContextRetriever = &NoteContextRetriever{}

func NewNoteContextRetriever(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.EmbeddingProvider) *NoteContextRetriever {
	return &NoteContextRetriever{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (r *NoteContextRetriever) SearchContext(ctx context.Context, query string, limit int) ([]engrammer.ContextNote, error) {
	embedRes, err := r.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().SearchSimilar(ctx, embedRes.Embedding.Values, limit)
	if err != nil {
		return nil, err
	}

	out := make([]engrammer.ContextNote, len(notes))
	for i, n := range notes {
		content := n.Content
		if n.GeneratedCaption != "" {
			content = n.GeneratedCaption
		}
		out[i] = engrammer.ContextNote{
			Id:      n.Id.String(),
			Title:   utils.Truncate(content, 60),
			Content: content,
		}
	}
	return out, nil
}
