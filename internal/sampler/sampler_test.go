package sampler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/backoff"
)

// fakeChatProvider replays scripted errors before answering with resp.
type fakeChatProvider struct {
	mu       sync.Mutex
	errs     []error
	resp     adapter.ChatResponse
	requests []adapter.ChatRequest
}

func (f *fakeChatProvider) Chat(_ context.Context, req adapter.ChatRequest) (adapter.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return adapter.ChatResponse{}, err
	}
	return f.resp, nil
}

func (f *fakeChatProvider) Name() string { return "cohere" }

func (f *fakeChatProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeContentProvider replays scripted errors before answering with resp.
type fakeContentProvider struct {
	mu       sync.Mutex
	errs     []error
	resp     adapter.GenerateResponse
	requests []adapter.GenerateRequest
}

func (f *fakeContentProvider) GenerateContent(_ context.Context, req adapter.GenerateRequest) (adapter.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return adapter.GenerateResponse{}, err
	}
	return f.resp, nil
}

func (f *fakeContentProvider) Name() string { return "gemini" }

// sleepRecorder captures requested delays instead of waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// quietOptions silences console output and records sleeps.
func quietOptions(rec *sleepRecorder, extra ...Option) []Option {
	p := backoff.DefaultPolicy()
	p.Sleep = rec.sleep

	opts := []Option{
		WithPolicy(p),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetryNotifier(func(string, backoff.Attempt) {}),
		WithRejectNotifier(func(string, error) {}),
	}
	return append(opts, extra...)
}
