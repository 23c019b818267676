package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type             string
	Content          string
	GeneratedCaption string
	Embedding        []float32
	EmbeddingStatus  string
	InsightStatus    string
	Status           string
	IsPinned         bool
	Tags             []string
	IsCompleted      bool
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}

// HasEmbedding reports whether the enrichment pipeline produced a vector.
func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}
