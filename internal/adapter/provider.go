// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to hide each vendor SDK behind a small capability
// interface, so samplers can be tested without a live network dependency.
package adapter

import (
	"context"
	"errors"
)

// ErrBadRequest is returned when a vendor rejects a request as malformed.
// Adapters wrap the vendor's own error with it.
var ErrBadRequest = errors.New("vendor rejected request as bad request")

// ChatProvider is the capability of a conversational completion API.
type ChatProvider interface {
	// Chat sends the current turn together with the prior history.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Name returns the provider's identifier string.
	Name() string
}

// ContentProvider is the capability of a single-prompt generation API.
type ContentProvider interface {
	// GenerateContent generates text for a single prompt.
	GenerateContent(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// Name returns the provider's identifier string.
	Name() string
}
