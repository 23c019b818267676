package specification

import (
	"engram-be/internal/constant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActiveOnly keeps non-archived notes.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", constant.NoteStatusActive)
}

// PendingEmbedding selects notes the embedding worker still has to process.
type PendingEmbedding struct{}

func (s PendingEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_status = ?", constant.EnrichmentStatusPending)
}

// AwaitingInsight selects embedded notes the insight worker still has to
// process.
type AwaitingInsight struct{}

func (s AwaitingInsight) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_status = ? AND insight_status = ?",
		constant.EnrichmentStatusCompleted, constant.EnrichmentStatusPending)
}

// ExcludeID drops one note, used when gathering context around a target.
type ExcludeID struct {
	ID uuid.UUID
}

func (s ExcludeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id <> ?", s.ID)
}

// ByRelationEndpoint matches relations touching a note on either side.
type ByRelationEndpoint struct {
	NoteID uuid.UUID
}

func (s ByRelationEndpoint) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ? OR target_id = ?", s.NoteID, s.NoteID)
}
