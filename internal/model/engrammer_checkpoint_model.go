package model

import (
	"time"

	"gorm.io/datatypes"
)

// EngrammerCheckpoint is the persisted session snapshot, one row per thread.
type EngrammerCheckpoint struct {
	ThreadId  string         `gorm:"type:varchar(64);primaryKey"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	Next      datatypes.JSON `gorm:"type:jsonb"`
	LastError *string        `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (EngrammerCheckpoint) TableName() string {
	return "engrammer_checkpoints"
}
