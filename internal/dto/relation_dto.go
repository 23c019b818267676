package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRelationRequest struct {
	SourceId  uuid.UUID `json:"source_id" validate:"required"`
	TargetId  uuid.UUID `json:"target_id" validate:"required"`
	Reasoning string    `json:"reasoning" validate:"required"`
}

type RelationResponse struct {
	Id        uuid.UUID `json:"id"`
	SourceId  uuid.UUID `json:"source_id"`
	TargetId  uuid.UUID `json:"target_id"`
	Reasoning string    `json:"reasoning"`
	Source    string    `json:"source"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

type RelationFeedbackRequest struct {
	Id       uuid.UUID
	Feedback string `json:"feedback" validate:"required,oneof=pending useful harmful"`
}
