package domain

import "time"

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the assistant conversation
type ChatMessage struct {
	ID        string
	Role      ChatRole
	Content   string
	Timestamp time.Time
}
