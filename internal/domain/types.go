package domain

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SplitSystem extracts the system message from an ordered conversation.
// The first system message wins; all system turns are removed from the
// returned conversation. Providers that take the system prompt out-of-band
// (Anthropic) call this before dispatch.
func SplitSystem(messages []Message) (system string, conversation []Message) {
	conversation = make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system == "" {
				system = m.Content
			}
			continue
		}
		conversation = append(conversation, m)
	}
	return system, conversation
}
