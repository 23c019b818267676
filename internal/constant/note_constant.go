package constant

const (
	NoteTypeText     = "text"
	NoteTypeImage    = "image"
	NoteTypeAudio    = "audio"
	NoteTypeURL      = "url"
	NoteTypeTask     = "task"
	NoteTypeProject  = "project"
	NoteTypeWorkshop = "workshop"

	NoteStatusActive   = "active"
	NoteStatusArchived = "archived"

	EnrichmentStatusPending   = "pending"
	EnrichmentStatusCompleted = "completed"
	EnrichmentStatusFailed    = "failed"

	RelationSourceAISuggestion = "ai_suggestion"
	RelationSourceUserManual   = "user_manual"

	RelationFeedbackPending = "pending"
	RelationFeedbackUseful  = "useful"
	RelationFeedbackHarmful = "harmful"
)

// NoteTypes lists every accepted note type for request validation.
var NoteTypes = []string{
	NoteTypeText, NoteTypeImage, NoteTypeAudio, NoteTypeURL,
	NoteTypeTask, NoteTypeProject, NoteTypeWorkshop,
}

func IsValidNoteType(t string) bool {
	for _, known := range NoteTypes {
		if t == known {
			return true
		}
	}
	return false
}
