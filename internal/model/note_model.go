package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Note struct {
	Id               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type             string           `gorm:"type:varchar(20);not null;default:'text'"`
	Content          string           `gorm:"type:text;not null"`
	GeneratedCaption *string          `gorm:"type:text"`
	Embedding        *pgvector.Vector `gorm:"type:vector(768)"`
	EmbeddingStatus  string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	InsightStatus    string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	Status           string           `gorm:"type:varchar(20);not null;default:'active';index"`
	IsPinned         bool             `gorm:"not null;default:false"`
	Tags             datatypes.JSON   `gorm:"type:jsonb"`
	IsCompleted      bool             `gorm:"not null;default:false"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt   `gorm:"index"`
}

func (Note) TableName() string {
	return "notes"
}
