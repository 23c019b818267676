package dto

type EngrammerStartRequest struct {
	Query    string `json:"query"`
	ThreadId string `json:"threadId"`
}

type EngrammerStartResponse struct {
	ThreadId string `json:"threadId"`
}

type EngrammerInsight struct {
	Id      string `json:"id"`
	Content string `json:"content"`
}

type EngrammerReference struct {
	Source string `json:"source"`
	NoteId string `json:"noteId"`
	Title  string `json:"title,omitempty"`
}

type EngrammerStateResponse struct {
	Status          string               `json:"status"`
	LatestResponse  string               `json:"latestResponse"`
	PendingInsights []EngrammerInsight   `json:"pendingInsights"`
	References      []EngrammerReference `json:"references"`
	Error           string               `json:"error,omitempty"`
}

type EngrammerContinueRequest struct {
	ThreadId  string `json:"threadId"`
	UserInput string `json:"userInput"`
}

type EngrammerContinueResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type EngrammerNoteResponse struct {
	Id      string `json:"id"`
	Source  string `json:"source"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}
