// Package response models what an LLM backend hands back after an
// invocation. Backends disagree on shape: some return a bare string, others a
// structured message carrying content blocks. Response is a tagged union over
// those shapes and Normalize is the single place that turns any of them into
// plain text.
package response

import (
	"fmt"
	"strings"
)

// Kind tags which field of a Response is populated.
type Kind int

const (
	// KindText is a bare completion string (e.g. Ollama /api/generate).
	KindText Kind = iota
	// KindMessage is a structured chat message (e.g. Anthropic messages).
	KindMessage
	// KindRaw is anything else; Normalize falls back to its fmt representation.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMessage:
		return "message"
	default:
		return "raw"
	}
}

// Block is one content block of a structured message.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is the structured response shape.
type Message struct {
	Role       string  `json:"role,omitempty"`
	Model      string  `json:"model,omitempty"`
	Content    []Block `json:"content"`
	StopReason string  `json:"stop_reason,omitempty"`
}

// Text concatenates the text blocks of the message.
func (m *Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	return b.String()
}

// Response is the tagged union returned by every agent provider. Usage is
// nil when the backend does not report token counts.
type Response struct {
	Kind    Kind
	Text    string
	Message *Message
	Raw     any
	Usage   *TokenUsage
}

// FromText wraps a bare completion string.
func FromText(text string) Response {
	return Response{Kind: KindText, Text: text}
}

// FromMessage wraps a structured message.
func FromMessage(msg *Message) Response {
	return Response{Kind: KindMessage, Message: msg}
}

// FromRaw wraps an unrecognized value.
func FromRaw(v any) Response {
	return Response{Kind: KindRaw, Raw: v}
}

// Normalize returns the plain text carried by r. A message response without
// a message, or a raw value, falls back to its fmt representation so callers
// always get a string.
func Normalize(r Response) string {
	switch r.Kind {
	case KindText:
		return r.Text
	case KindMessage:
		if r.Message != nil {
			return r.Message.Text()
		}
		return ""
	default:
		if r.Raw == nil {
			return ""
		}
		if s, ok := r.Raw.(string); ok {
			return s
		}
		if s, ok := r.Raw.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprint(r.Raw)
	}
}
