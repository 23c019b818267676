package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Type    string   `json:"type" validate:"required"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type NoteResponse struct {
	Id               uuid.UUID  `json:"id"`
	Type             string     `json:"type"`
	Content          string     `json:"content"`
	GeneratedCaption string     `json:"generated_caption,omitempty"`
	EmbeddingStatus  string     `json:"embedding_status"`
	InsightStatus    string     `json:"insight_status"`
	Status           string     `json:"status"`
	IsPinned         bool       `json:"is_pinned"`
	Tags             []string   `json:"tags"`
	IsCompleted      bool       `json:"is_completed"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type ListNotesRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes"`
	Total int64          `json:"total"`
}

type UpdateNoteRequest struct {
	Id          uuid.UUID
	Content     string   `json:"content" validate:"required"`
	Tags        []string `json:"tags"`
	IsCompleted *bool    `json:"is_completed"`
}

type UpdateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type SemanticSearchResponse struct {
	Notes []NoteResponse `json:"notes"`
}
