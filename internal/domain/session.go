package domain

// MaxHistory is the number of chat turns kept in a persisted session.
const MaxHistory = 6

// Session is the persisted conversational state for one chat thread.
// A session with Complete set is terminal.
type Session struct {
	Complete bool          `json:"complete"`
	History  []ChatMessage `json:"history"`
	Idea     Idea          `json:"idea"`
}

// NewSession returns the state used for the first message of a thread.
func NewSession() Session {
	return Session{History: []ChatMessage{}}
}

// ModelResponse is the structured reply the model produces for a turn.
type ModelResponse struct {
	Complete bool   `json:"complete"`
	Idea     *Idea  `json:"idea,omitempty"`
	Message  string `json:"message"`
}

// TruncateHistory keeps the most recent MaxHistory messages. The returned
// slice never aliases the input.
func TruncateHistory(history []ChatMessage) []ChatMessage {
	start := 0
	if len(history) > MaxHistory {
		start = len(history) - MaxHistory
	}
	out := make([]ChatMessage, len(history)-start)
	copy(out, history[start:])
	return out
}
