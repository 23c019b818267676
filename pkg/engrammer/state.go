// Package engrammer implements the agent session engine: an explicit node
// graph advancing a per-thread session through reflection, a human approval
// gate, and playbook curation, checkpointed between steps.
package engrammer

// Message is one conversational turn in a session.
type Message struct {
	Id      string `json:"id"`
	Type    string `json:"type"` // "human" or "ai"
	Content string `json:"content"`
}

// Insight is a single AI-proposed strategy. Pending insights await human
// approval; approved ones live in the playbook.
type Insight struct {
	Id      string `json:"id"`
	Content string `json:"content"`
}

// Reference cites a knowledge source used to produce a response.
type Reference struct {
	Source string `json:"source"` // "notes" or "playbook"
	NoteId string `json:"noteId"`
	Title  string `json:"title,omitempty"`
}

// State is the full session state carried between graph nodes.
type State struct {
	Query           string      `json:"query"`
	Messages        []Message   `json:"messages"`
	Playbook        []Insight   `json:"playbook"`
	PendingInsights []Insight   `json:"pendingInsights"`
	References      []Reference `json:"references"`
	GeneratorResult string      `json:"generatorResult,omitempty"`
}

// Update is a partial state change emitted by a node. Each field has a fixed
// merge rule applied by Apply; nodes never mutate State directly.
type Update struct {
	Query           string       // replace, only if non-empty
	Messages        []Message    // append
	Playbook        []Insight    // append
	PendingInsights *[]Insight   // replace; nil means unchanged
	References      *[]Reference // replace; nil means unchanged
	GeneratorResult string       // replace, only if non-empty
}

// Apply merges an update into the state and returns the result. The per-field
// rules:
//
//	query, generatorResult  replace when set
//	messages, playbook      append
//	pendingInsights         replace wholesale (cleared by &[]Insight{})
//	references              replace wholesale
func (s State) Apply(u Update) State {
	if u.Query != "" {
		s.Query = u.Query
	}
	if u.GeneratorResult != "" {
		s.GeneratorResult = u.GeneratorResult
	}
	if len(u.Messages) > 0 {
		s.Messages = append(append([]Message{}, s.Messages...), u.Messages...)
	}
	if len(u.Playbook) > 0 {
		s.Playbook = append(append([]Insight{}, s.Playbook...), u.Playbook...)
	}
	if u.PendingInsights != nil {
		s.PendingInsights = append([]Insight{}, (*u.PendingInsights)...)
	}
	if u.References != nil {
		s.References = append([]Reference{}, (*u.References)...)
	}
	return s
}

// LatestResponse returns the structured generator output when present,
// otherwise the content of the most recent AI message.
func (s State) LatestResponse() string {
	if s.GeneratorResult != "" {
		return s.GeneratorResult
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Type == "ai" {
			return s.Messages[i].Content
		}
	}
	return ""
}
