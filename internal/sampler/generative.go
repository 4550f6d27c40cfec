package sampler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
)

// GenerativeSampler samples from a single-prompt generation API.
// Only the first message's content is sent; later messages are dropped.
type GenerativeSampler struct {
	provider adapter.ContentProvider
	config   domain.SamplerConfig
	opts     options
}

// NewGenerativeSampler creates a sampler on top of a content provider.
func NewGenerativeSampler(provider adapter.ContentProvider, cfg domain.SamplerConfig, opts ...Option) *GenerativeSampler {
	return &GenerativeSampler{
		provider: provider,
		config:   cfg,
		opts:     newOptions(opts),
	}
}

// Name returns the provider identifier.
func (s *GenerativeSampler) Name() string {
	return s.provider.Name()
}

// Config returns the sampler's generation settings.
func (s *GenerativeSampler) Config() domain.SamplerConfig {
	return s.config
}

// Sample sends the first message's content as the prompt. Every failure is
// retried; there is no special-cased vendor error.
func (s *GenerativeSampler) Sample(ctx context.Context, messages []domain.Message) (domain.Result, error) {
	req, err := s.buildRequest(messages)
	if err != nil {
		return domain.Result{}, err
	}

	s.opts.logger.Debug("generate request prepared",
		slog.String("sampler", s.Name()),
		slog.String("model", req.Model),
		slog.Int("dropped_messages", len(messages)-1),
	)

	resp, err := backoff.Retry(ctx, s.opts.policy, func(ctx context.Context) (adapter.GenerateResponse, error) {
		return s.provider.GenerateContent(ctx, req)
	}, s.opts.retryHook(s.Name()))
	if err != nil {
		return domain.Result{}, fmt.Errorf("%s sample: %w", s.Name(), err)
	}

	return domain.Result{
		Text:         resp.Text,
		InputTokens:  resp.PromptTokens,
		OutputTokens: resp.CandidatesTokens,
	}, nil
}

func (s *GenerativeSampler) buildRequest(messages []domain.Message) (adapter.GenerateRequest, error) {
	if len(messages) == 0 {
		return adapter.GenerateRequest{}, domain.ErrNoMessages
	}

	return adapter.GenerateRequest{
		Model:           s.config.Model,
		Prompt:          messages[0].Content,
		Temperature:     s.config.Temperature,
		MaxOutputTokens: s.config.MaxTokens,
	}, nil
}
