package entity

import (
	"time"

	"github.com/google/uuid"
)

type Relation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SourceId  uuid.UUID
	TargetId  uuid.UUID
	Reasoning string
	Source    string // ai_suggestion or user_manual
	Feedback  string // pending, useful, harmful
	CreatedAt time.Time
}
