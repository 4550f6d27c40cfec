package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
)

// ConversationalSampler samples from a chat API. The last message is the
// current turn; all earlier messages become chat history.
type ConversationalSampler struct {
	provider adapter.ChatProvider
	config   domain.SamplerConfig
	opts     options
}

// NewConversationalSampler creates a sampler on top of a chat provider.
func NewConversationalSampler(provider adapter.ChatProvider, cfg domain.SamplerConfig, opts ...Option) *ConversationalSampler {
	return &ConversationalSampler{
		provider: provider,
		config:   cfg,
		opts:     newOptions(opts),
	}
}

// Name returns the provider identifier.
func (s *ConversationalSampler) Name() string {
	return s.provider.Name()
}

// Config returns the sampler's generation settings.
func (s *ConversationalSampler) Config() domain.SamplerConfig {
	return s.config
}

// Sample sends the conversation to the chat provider.
//
// A bad request rejection ends the call after a single attempt with an empty,
// Rejected result and a nil error. Every other failure is retried.
func (s *ConversationalSampler) Sample(ctx context.Context, messages []domain.Message) (domain.Result, error) {
	req, err := s.buildRequest(messages)
	if err != nil {
		return domain.Result{}, err
	}

	s.opts.logger.Debug("chat request prepared",
		slog.String("sampler", s.Name()),
		slog.String("model", req.Model),
		slog.Int("history_len", len(req.ChatHistory)),
	)

	resp, err := backoff.Retry(ctx, s.opts.policy, func(ctx context.Context) (adapter.ChatResponse, error) {
		resp, err := s.provider.Chat(ctx, req)
		if errors.Is(err, adapter.ErrBadRequest) {
			return resp, backoff.Permanent(err)
		}
		return resp, err
	}, s.opts.retryHook(s.Name()))

	if errors.Is(err, adapter.ErrBadRequest) {
		s.opts.logger.Warn("request rejected by vendor",
			slog.String("sampler", s.Name()),
			slog.String("error", err.Error()),
		)
		if s.opts.onReject != nil {
			s.opts.onReject(s.Name(), err)
		}
		return domain.Result{Rejected: true}, nil
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("%s sample: %w", s.Name(), err)
	}

	return domain.Result{
		Text:         resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// buildRequest maps the message list into a chat request. The history holds
// the configured system message, if any, followed by every message but the last.
func (s *ConversationalSampler) buildRequest(messages []domain.Message) (adapter.ChatRequest, error) {
	if len(messages) == 0 {
		return adapter.ChatRequest{}, domain.ErrNoMessages
	}

	prior := messages[:len(messages)-1]
	history := make([]adapter.ChatMessage, 0, len(prior)+1)

	if s.config.SystemMessage != "" {
		history = append(history, adapter.ChatMessage{
			Role:    adapter.ChatRoleSystem,
			Message: s.config.SystemMessage,
		})
	}

	for i, msg := range prior {
		packed, err := packChatMessage(msg)
		if err != nil {
			return adapter.ChatRequest{}, fmt.Errorf("message %d: %w", i, err)
		}
		history = append(history, packed)
	}

	return adapter.ChatRequest{
		Model:       s.config.Model,
		Message:     messages[len(messages)-1].Content,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
		ChatHistory: history,
	}, nil
}

// packChatMessage remaps a role to the chat vendor's vocabulary.
func packChatMessage(msg domain.Message) (adapter.ChatMessage, error) {
	role, err := domain.ParseRole(msg.Role)
	if err != nil {
		return adapter.ChatMessage{}, err
	}

	var chatRole string
	switch role {
	case domain.RoleAssistant:
		chatRole = adapter.ChatRoleChatbot
	case domain.RoleUser:
		chatRole = adapter.ChatRoleUser
	case domain.RoleSystem:
		chatRole = adapter.ChatRoleSystem
	}

	return adapter.ChatMessage{Role: chatRole, Message: msg.Content}, nil
}
