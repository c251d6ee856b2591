package domain

import "strings"

// ChatRole marks who produced a dialog message.
type ChatRole string

const (
	RoleHuman ChatRole = "human"
	RoleAI    ChatRole = "ai"
)

type ChatMessage struct {
	Text string   `json:"text"`
	Role ChatRole `json:"role"`
}

// DialogHistory is the caller-supplied conversation so far, in conversational
// order. It is never mutated in place; each request builds a fresh sequence.
type DialogHistory []ChatMessage

func (h DialogHistory) Empty() bool {
	return len(h) == 0
}

// Transcript renders the history as a plain text exchange for condensation
// prompts.
func (h DialogHistory) Transcript() string {
	var b strings.Builder
	for i, msg := range h {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case RoleAI:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("Human: ")
		}
		b.WriteString(msg.Text)
	}
	return b.String()
}

// Dialog carries the history plus caller-side identifiers forwarded to the
// tracing backend.
type Dialog struct {
	History  DialogHistory `json:"history"`
	Tags     []string      `json:"tags"`
	DialogID string        `json:"dialogId,omitempty"`
	UserID   string        `json:"userId,omitempty"`
}
