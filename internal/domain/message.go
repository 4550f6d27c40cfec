// Package domain contains the core entities shared by samplers and adapters.
// These structs are vendor-agnostic and carry no SDK types.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoMessages is returned when a sampler is invoked with an empty message list.
	ErrNoMessages = errors.New("message list is empty")

	// ErrUnknownRole is returned when a message role is not system, user or assistant.
	ErrUnknownRole = errors.New("unknown message role")
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chronological turn of a conversation.
type Message struct {
	// Role is matched case-insensitively against system, user and assistant.
	Role string `json:"role"`

	// Content is the text of the turn.
	Content string `json:"content"`
}

// ParseRole normalizes a role string. Matching is case-insensitive.
func ParseRole(role string) (Role, error) {
	switch r := Role(strings.ToLower(role)); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

// Result is the outcome of a single sampler invocation.
type Result struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`

	// Rejected is set when the vendor refused the request as malformed.
	// Text and token counts are zero in that case.
	Rejected bool `json:"rejected"`
}

// TotalTokens returns input plus output tokens.
func (r Result) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
