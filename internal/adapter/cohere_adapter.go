package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

// EnvCohereAPIKey is the environment variable holding the Cohere API key.
const EnvCohereAPIKey = "COHERE_API_KEY"

// CohereAdapter implements ChatProvider for the Cohere chat API.
type CohereAdapter struct {
	client *cohereclient.Client
}

// NewCohereAdapter creates a new CohereAdapter with the given API key.
func NewCohereAdapter(apiKey string, opts ...Option) *CohereAdapter {
	o := newClientOptions(opts)

	// The sampler's backoff policy is the only retry loop.
	reqOpts := []option.RequestOption{
		option.WithToken(apiKey),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxAttempts(1),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &CohereAdapter{
		client: cohereclient.NewClient(reqOpts...),
	}
}

// NewCohereAdapterFromEnv reads the API key from COHERE_API_KEY.
// A missing key is not an error here; the vendor rejects the first call instead.
func NewCohereAdapterFromEnv(opts ...Option) *CohereAdapter {
	return NewCohereAdapter(os.Getenv(EnvCohereAPIKey), opts...)
}

// Name returns the provider identifier.
func (a *CohereAdapter) Name() string {
	return "cohere"
}

// Chat performs a chat request. A Cohere bad request error is reported as
// ErrBadRequest; everything else is wrapped unchanged.
func (a *CohereAdapter) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	resp, err := a.client.Chat(ctx, toCohereChatRequest(req))
	if err != nil {
		var badRequest *cohere.BadRequestError
		if errors.As(err, &badRequest) {
			return ChatResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return ChatResponse{}, fmt.Errorf("cohere chat: %w", err)
	}

	return fromCohereChatResponse(resp), nil
}

// toCohereChatRequest converts a ChatRequest to the SDK request.
func toCohereChatRequest(req ChatRequest) *cohere.ChatRequest {
	history := make([]*cohere.Message, 0, len(req.ChatHistory))
	for _, m := range req.ChatHistory {
		history = append(history, toCohereMessage(m))
	}

	return &cohere.ChatRequest{
		Message:     req.Message,
		Model:       cohere.String(req.Model),
		Temperature: cohere.Float64(req.Temperature),
		MaxTokens:   cohere.Int(req.MaxTokens),
		ChatHistory: history,
	}
}

// toCohereMessage places the text under the union member matching its role.
func toCohereMessage(m ChatMessage) *cohere.Message {
	body := &cohere.ChatMessage{Message: m.Message}

	switch m.Role {
	case ChatRoleSystem:
		return &cohere.Message{Role: ChatRoleSystem, System: body}
	case ChatRoleChatbot:
		return &cohere.Message{Role: ChatRoleChatbot, Chatbot: body}
	default:
		return &cohere.Message{Role: ChatRoleUser, User: body}
	}
}

// fromCohereChatResponse reads text and token counts from the response metadata.
func fromCohereChatResponse(resp *cohere.NonStreamedChatResponse) ChatResponse {
	out := ChatResponse{}
	if resp == nil {
		return out
	}

	out.Text = resp.Text
	if resp.Meta != nil && resp.Meta.Tokens != nil {
		if in := resp.Meta.Tokens.InputTokens; in != nil {
			out.InputTokens = int(*in)
		}
		if o := resp.Meta.Tokens.OutputTokens; o != nil {
			out.OutputTokens = int(*o)
		}
	}
	return out
}
