// Package chat models advisor conversations and their transcripts.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role is the author of a chat message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool { return r == RoleUser || r == RoleAssistant }

// ContextWindow is the number of stored messages loaded as conversation context.
const ContextWindow = 10

// PromptWindow is the number of context messages quoted in the LLM prompt.
const PromptWindow = 4

// Session is a conversation.
type Session struct {
	ID        string
	UserID    string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}

// Message is a single transcript line.
type Message struct {
	SessionID string
	Role      Role
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// NewMessage trims and validates a transcript line.
func NewMessage(sessionID string, role Role, content string, metadata map[string]any) (Message, error) {
	if sessionID == "" {
		return Message{}, fmt.Errorf("session ID is required")
	}
	if !role.IsValid() {
		return Message{}, fmt.Errorf("invalid role: %q", role)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("message content is required")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Selector picks sessions either by session ID or by owner.
type Selector struct {
	SessionID string
	UserID    string
}

// Validate requires exactly one usable key; SessionID wins when both are set.
func (s Selector) Validate() error {
	if s.SessionID == "" && s.UserID == "" {
		return fmt.Errorf("either sessionId or userId is required")
	}
	return nil
}
