package dto

// FindConnectionsRequest mirrors the callable contract: the target note plus
// the candidate context notes.
type FindConnectionsRequest struct {
	Note         *ConnectionNote  `json:"note"`
	ContextNotes []ConnectionNote `json:"contextNotes"`
}

type ConnectionNote struct {
	Id      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ConnectionSuggestion struct {
	TargetNoteId string `json:"targetNoteId"`
	Reasoning    string `json:"reasoning"`
}

type FindConnectionsResponse struct {
	Suggestions []ConnectionSuggestion `json:"suggestions"`
}

type EmbedNoteRequest struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type EmbedNoteResponse struct {
	Embedding []float32 `json:"embedding"`
	Caption   string    `json:"caption,omitempty"`
}
