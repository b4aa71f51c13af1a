// Package protocol defines the conversation shapes shared by the agent,
// session, and answer packages.
package protocol

import "strings"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the transcript label used when a message is rendered as a
// line of conversation history.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "Human"
	case RoleAssistant:
		return "AI"
	default:
		return "System"
	}
}

// Message is a single immutable turn fragment. Content is plain text.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "이력 요약을 보고 싶어요")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// UserMessage is shorthand for NewMessage(RoleUser, content).
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// AssistantMessage is shorthand for NewMessage(RoleAssistant, content).
func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// Turn builds the user/assistant pair appended to a session after an answer.
func Turn(question, answer string) []Message {
	return []Message{UserMessage(question), AssistantMessage(answer)}
}

// FormatTranscript renders messages as role-labeled lines joined by newlines,
// e.g. "Human: hi\nAI: hello".
func FormatTranscript(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, msg.Role.Label()+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// SplitSystem separates leading system messages from the rest of the
// conversation. Providers that take the system prompt as a separate field
// use this to build their request.
func SplitSystem(msgs []Message) (system string, rest []Message) {
	var parts []string
	for i, msg := range msgs {
		if msg.Role != RoleSystem {
			rest = msgs[i:]
			break
		}
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n"), rest
}
