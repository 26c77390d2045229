package domain

// ChatMessage is one turn of conversation history passed through to
// the generation capability.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
