package model

import (
	"time"

	"github.com/google/uuid"
)

type Relation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceId  uuid.UUID `gorm:"type:uuid;not null;index"`
	TargetId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Reasoning string    `gorm:"type:text;not null"`
	Source    string    `gorm:"type:varchar(20);not null;default:'ai_suggestion'"`
	Feedback  string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	// Relations are removed with either endpoint note.
	SourceNote *Note `gorm:"foreignKey:SourceId;constraint:OnDelete:CASCADE"`
	TargetNote *Note `gorm:"foreignKey:TargetId;constraint:OnDelete:CASCADE"`
}

func (Relation) TableName() string {
	return "relations"
}
