// Package sampler turns a generic message list into a vendor call and
// returns the generated text with its token counts.
//
// Two samplers exist and share nothing but the Sampler interface:
//   - ConversationalSampler sends the last message as the current turn and
//     everything before it as chat history.
//   - GenerativeSampler sends only the first message's content as the prompt.
//
// Transient failures are retried with the configured backoff.Policy; the
// default retries forever with 1s, 2s, 4s, ... delays.
package sampler

import (
	"context"
	"log/slog"

	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
	"github.com/hpn/hpn-sampler/internal/ui"
)

// Sampler is a callable taking a message list and returning one result.
type Sampler interface {
	// Sample runs a single completion. It blocks until the vendor answers,
	// the retry policy gives up, or ctx is done.
	Sample(ctx context.Context, messages []domain.Message) (domain.Result, error)

	// Name returns the sampler's identifier string.
	Name() string

	// Config returns a copy of the sampler's generation settings.
	Config() domain.SamplerConfig
}

// RetryNotifier is called before every backoff sleep.
type RetryNotifier func(sampler string, attempt backoff.Attempt)

// RejectNotifier is called when the vendor rejects a request outright.
type RejectNotifier func(sampler string, err error)

type options struct {
	policy   backoff.Policy
	logger   *slog.Logger
	onRetry  RetryNotifier
	onReject RejectNotifier
}

// Option is a functional option for configuring samplers.
type Option func(*options)

// WithPolicy sets the retry policy.
func WithPolicy(p backoff.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryNotifier replaces the console retry diagnostic.
func WithRetryNotifier(fn RetryNotifier) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// WithRejectNotifier replaces the console bad request diagnostic.
func WithRejectNotifier(fn RejectNotifier) Option {
	return func(o *options) {
		o.onReject = fn
	}
}

func newOptions(opts []Option) options {
	o := options{
		policy: backoff.DefaultPolicy(),
		logger: slog.Default(),
		onRetry: func(name string, a backoff.Attempt) {
			ui.PrintRetry(name, a.Number-1, a.Delay, a.Err)
		},
		onReject: ui.PrintBadRequest,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// retryHook logs and reports a failed attempt before the sampler sleeps.
func (o options) retryHook(name string) backoff.Option {
	return backoff.OnRetry(func(a backoff.Attempt) {
		o.logger.Warn("vendor call failed, backing off",
			slog.String("sampler", name),
			slog.Int("trial", a.Number-1),
			slog.Duration("backoff", a.Delay),
			slog.String("error", a.Err.Error()),
		)
		if o.onRetry != nil {
			o.onRetry(name, a)
		}
	})
}
