package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's append-only conversation log.
// Ordinal is assigned by the session and increases monotonically; a message
// is never mutated or removed after being appended. Answer is set only on
// assistant messages that carry a normalized answer; Text carries the
// rendered fallback for every role.
type Message struct {
	Role    Role
	Ordinal int
	Text    string
	Answer  *NormalizedAnswer
}
