package domain

// ChatMessage is the provider-agnostic chat turn shape sent to the
// completion service.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in transcripts and completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single persisted transcript entry. Timestamp is epoch
// milliseconds. LocationIDs holds the venues mentioned by an assistant
// reply, in first-occurrence order.
type Message struct {
	ID          string   `json:"id"`
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Timestamp   int64    `json:"timestamp"`
	LocationIDs []string `json:"locationIds,omitempty"`
}
