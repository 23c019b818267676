package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"engram-be/internal/constant"
	"engram-be/internal/entity"
	"engram-be/internal/repository/implementation"
	"engram-be/internal/repository/specification"
	"engram-be/internal/repository/unitofwork"
	"engram-be/pkg/database"
	"engram-be/pkg/engrammer"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.NoteRepository())
	assert.NotNil(t, uow.RelationRepository())

	t.Run("Note lifecycle with worker queues", func(t *testing.T) {
		ctx := context.Background()

		note := &entity.Note{
			Id:              uuid.New(),
			Type:            constant.NoteTypeText,
			Content:         "integration test note " + uuid.NewString(),
			EmbeddingStatus: constant.EnrichmentStatusPending,
			InsightStatus:   constant.EnrichmentStatusPending,
			Status:          constant.NoteStatusActive,
			CreatedAt:       time.Now(),
		}
		require.NoError(t, uow.NoteRepository().Create(ctx, note))
		defer uow.NoteRepository().Delete(ctx, note.Id)

		pending, err := uow.NoteRepository().FindPendingEmbedding(ctx, 100)
		require.NoError(t, err)

		found := false
		for _, n := range pending {
			if n.Id == note.Id {
				found = true
			}
		}
		assert.True(t, found, "created note should sit in the embedding queue")

		note.Embedding = make([]float32, 768)
		note.Embedding[0] = 1
		note.EmbeddingStatus = constant.EnrichmentStatusCompleted
		require.NoError(t, uow.NoteRepository().UpdateEnrichment(ctx, note))

		stored, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: note.Id})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, constant.EnrichmentStatusCompleted, stored.EmbeddingStatus)
		assert.True(t, stored.HasEmbedding())

		similar, err := uow.NoteRepository().SearchSimilar(ctx, note.Embedding, 5)
		require.NoError(t, err)
		assert.NotEmpty(t, similar)
	})

	t.Run("Checkpoint upsert roundtrip", func(t *testing.T) {
		ctx := context.Background()
		repo := implementation.NewCheckpointRepository(gormDB)

		threadID := "it-" + uuid.NewString()
		cp := &engrammer.Checkpoint{
			ThreadID: threadID,
			State: engrammer.State{
				Query:    "integration query",
				Messages: []engrammer.Message{{Id: "m1", Type: "human", Content: "integration query"}},
			},
			Next: []engrammer.NodeID{engrammer.NodeCurator},
		}
		require.NoError(t, repo.Put(ctx, cp))

		loaded, err := repo.Get(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, engrammer.StatusInterrupted, loaded.DeriveStatus())
		assert.Equal(t, "integration query", loaded.State.Query)

		// Second Put must update in place, not duplicate the row.
		cp.Next = nil
		require.NoError(t, repo.Put(ctx, cp))

		loaded, err = repo.Get(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, engrammer.StatusDone, loaded.DeriveStatus())

		gormDB.Exec("DELETE FROM engrammer_checkpoints WHERE thread_id = ?", threadID)
	})
}
