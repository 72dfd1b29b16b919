package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape stored in session
// history and sent to the model integrations.
type ChatMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// TurnEvent is the payload handed from the webhook receiver to the turn
// processor. ThreadTS doubles as the session key.
type TurnEvent struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"threadTs"`
	User     string `json:"user"`
}

// UserProfile is the result of a chat-platform user lookup. OK is false when
// the platform rejected the lookup; an accepted lookup may still lack fields.
type UserProfile struct {
	OK       bool
	Email    string
	RealName string
}
